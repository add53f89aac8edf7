package text

import "github.com/clipperhouse/uax29/graphemes"

// graphemeIterator adapts uax29's segmenter to the small next/clusterLen
// interface ClipToCharBoundary needs, so that file does not have to
// import uax29 directly.
type graphemeIterator struct {
	seg *graphemes.Segmenter
}

func newGraphemeIterator(s string) *graphemeIterator {
	return &graphemeIterator{seg: graphemes.NewSegmenter([]byte(s))}
}

func (it *graphemeIterator) next() bool {
	return it.seg.Next()
}

func (it *graphemeIterator) clusterLen() int {
	return len(it.seg.Bytes())
}
