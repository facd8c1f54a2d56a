// Package config loads a Store's tunables from CUE source, the same way
// the compiler package parses sync rules: compile the document once with
// cuecontext, then walk it field by field with LookupPath rather than
// unmarshalling into a Go struct, so a wrong-typed field produces a
// position-annotated error instead of a zero value. A missing field keeps
// its zero value; only a missing top-level "store" field is an error.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/opalj-go/fpcf/internal/pstore"
)

// Loaded holds the plain-data tunables a CUE document can express. Fields
// a Store needs that are not plain data — the Tracer — are never part of
// this document; callers add WithTracer separately when building Options.
type Loaded struct {
	Parallelism   int
	Debug         bool
	FastTrack     bool
	ShardsPerKind int
}

// Options converts the loaded document into pstore.Options, ready to pass
// to pstore.New alongside any runtime-only options like WithTracer.
func (l Loaded) Options() []pstore.Option {
	return []pstore.Option{
		pstore.WithParallelism(l.Parallelism),
		pstore.WithDebug(l.Debug),
		pstore.WithFastTrack(l.FastTrack),
		pstore.WithShardsPerKind(l.ShardsPerKind),
	}
}

// LoadFile reads and parses path as a CUE store configuration document.
func LoadFile(path string) (Loaded, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	return ParseString(string(src))
}

// ParseString parses src as a CUE document of the shape:
//
//	store: {
//		parallelism:   8
//		debug:         false
//		fastTrack:     true
//		shardsPerKind: 16
//	}
//
// Every field is optional; a field CUE does not set keeps its Go zero
// value, and pstore.newConfig fills in the package defaults for any field
// left at zero.
func ParseString(src string) (Loaded, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return Loaded{}, formatCUEError(err)
	}

	store := v.LookupPath(cue.ParsePath("store"))
	if !store.Exists() {
		return Loaded{}, &ParseError{Field: "store", Message: "document has no top-level \"store\" field"}
	}

	var (
		l   Loaded
		err error
	)
	if l.Parallelism, err = lookupInt(store, "parallelism", 0); err != nil {
		return Loaded{}, err
	}
	if l.Debug, err = lookupBool(store, "debug", false); err != nil {
		return Loaded{}, err
	}
	if l.FastTrack, err = lookupBool(store, "fastTrack", false); err != nil {
		return Loaded{}, err
	}
	if l.ShardsPerKind, err = lookupInt(store, "shardsPerKind", 0); err != nil {
		return Loaded{}, err
	}
	return l, nil
}

func lookupInt(v cue.Value, field string, fallback int) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return fallback, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, &ParseError{Field: field, Message: "must be an integer", Pos: fv.Pos()}
	}
	return int(n), nil
}

func lookupBool(v cue.Value, field string, fallback bool) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return fallback, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, &ParseError{Field: field, Message: "must be a boolean", Pos: fv.Pos()}
	}
	return b, nil
}

// ParseError reports a CUE document field that is missing or the wrong
// type, with source position when CUE provides one.
type ParseError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &ParseError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
