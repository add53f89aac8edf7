// Package script embeds a goja JavaScript runtime as loomd's operation
// policy hook, grounded in the e2e test harness's pattern of driving a
// goja.Runtime and invoking JS callback functions via
// goja.AssertFunction.
package script

import (
	"fmt"
	"os"

	"github.com/dop251/goja"

	"github.com/coreseekdev/loom/pkg/buffer"
)

// Host runs a single user-supplied script that must define a global
// `allow(op)` function. loomd calls Allow once per incoming operation
// before applying and rebroadcasting it; returning false (or throwing)
// drops the operation.
type Host struct {
	vm     *goja.Runtime
	allow  goja.Callable
	hasFn  bool
}

// Load compiles the script at path and resolves its `allow` function, if
// defined. A script with no `allow` function is valid; Host.Allow then
// accepts everything.
func Load(path string) (*Host, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: reading %s: %w", path, err)
	}
	vm := goja.New()
	if _, err := vm.RunString(string(src)); err != nil {
		return nil, fmt.Errorf("script: running %s: %w", path, err)
	}
	h := &Host{vm: vm}
	fnVal := vm.Get("allow")
	if fnVal != nil && !goja.IsUndefined(fnVal) && !goja.IsNull(fnVal) {
		fn, ok := goja.AssertFunction(fnVal)
		if !ok {
			return nil, fmt.Errorf("script: %s defines allow but it is not a function", path)
		}
		h.allow, h.hasFn = fn, true
	}
	return h, nil
}

// opView is the plain-data shape exposed to the script, since JS code
// can't reach into buffer.Operation's unexported anchor fields.
type opView struct {
	Kind    string `json:"kind"`
	NewText string `json:"newText"`
}

// Allow reports whether op should be accepted. Any script error is
// treated as a rejection rather than propagated, so a buggy policy
// script fails closed instead of taking down the relay.
func (h *Host) Allow(op buffer.Operation) bool {
	if h == nil || !h.hasFn {
		return true
	}
	view := opView{}
	switch t := op.(type) {
	case buffer.EditOperation:
		view.Kind, view.NewText = "edit", t.NewText
	case buffer.UndoOperation:
		view.Kind = "undo"
	case buffer.UpdateSelectionsOperation:
		view.Kind = "select"
	}
	result, err := h.allow(goja.Undefined(), h.vm.ToValue(view))
	if err != nil {
		return false
	}
	return result.ToBoolean()
}
