package buffer

// FileIdentity is an opaque token identifying the file a buffer is
// backed by, if any. It carries no semantics of its own; embedders
// (e.g. loomd) define what it means to read and write one.
type FileIdentity struct {
	token string
}

// LineEnding is the file's preferred line terminator. It is not detected
// from the contents: it defaults to LineFeed and changes only through
// SetLineEnding.
type LineEnding int

const (
	LineFeed LineEnding = iota
	CarriageReturnLineFeed
)

func (le LineEnding) String() string {
	if le == CarriageReturnLineFeed {
		return "CRLF"
	}
	return "LF"
}

// FileState tracks the dirty flag and backing file identity outside the
// CRDT state itself: dirtiness is local UI state, not something that
// needs to converge across replicas.
type FileState struct {
	identity   *FileIdentity
	dirty      bool
	lineEnding LineEnding
}

func newFileState() *FileState {
	return &FileState{lineEnding: LineFeed}
}

// markDirty sets the dirty flag and reports whether it actually
// transitioned from clean to dirty (so callers only emit Dirtied once
// per clean→dirty transition).
func (fs *FileState) markDirty() bool {
	if fs.dirty {
		return false
	}
	fs.dirty = true
	return true
}

// IsDirty reports whether the buffer has unsaved changes.
func (b *Buffer) IsDirty() bool { return b.file.dirty }

// MarkSaved clears the dirty flag and emits Saved. On a buffer that is
// not dirty it does nothing and emits no event.
func (b *Buffer) MarkSaved() {
	if !b.file.dirty {
		return
	}
	b.file.dirty = false
	b.emit(Saved{})
}

// FileIdentity returns the buffer's current backing file identity, or
// false if it has none yet (an unsaved scratch buffer).
func (b *Buffer) FileIdentity() (FileIdentity, bool) {
	if b.file.identity == nil {
		return FileIdentity{}, false
	}
	return *b.file.identity, true
}

// SetFileIdentity assigns (or reassigns) the buffer's backing file
// identity, e.g. on "Save As" or when the embedder detects the
// previously open file was deleted out from under it. A buffer whose
// file identity changes out from under its content is no longer in
// sync with anything on disk, so this marks the buffer dirty first
// (emitting Dirtied on the clean-to-dirty transition) and only then
// emits FileHandleChanged.
func (b *Buffer) SetFileIdentity(token string) {
	id := FileIdentity{token: token}
	b.file.identity = &id
	if b.file.markDirty() {
		b.emit(Dirtied{})
	}
	b.emit(FileHandleChanged{Identity: id})
}

// LineEnding returns the buffer's preferred line terminator.
func (b *Buffer) LineEnding() LineEnding { return b.file.lineEnding }

// SetLineEnding overrides the buffer's line terminator, e.g. after
// reading a file whose first line ends in CRLF.
func (b *Buffer) SetLineEnding(le LineEnding) { b.file.lineEnding = le }
