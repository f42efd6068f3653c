package md

import (
	"errors"
	"slices"
)

// Extension is a set of recognizers that a renderer or a feature adds to a
// Session for the duration of some work.
type Extension struct {
	Name string
	// Blocks are inserted at the front of the block registry, in order.
	Blocks []*BlockRecognizer
	// Spans are inserted right after the escape recognizer, in order.
	Spans []*SpanRecognizer
	// Fallback, if not nil, replaces the fallback span recognizer.
	Fallback *SpanRecognizer
}

// Scope records the changes an Extension made to a Session, so that they can
// be undone.
//
// Scopes track their own changes, so they may be closed in any order.
type Scope struct {
	session  *Session
	name     string
	blocks   []string
	spans    []string
	fallback bool
	closed   bool
}

// Open adds the recognizers of ext to the session. If any of them cannot be
// added, the changes made so far are undone and the error is returned.
func (s *Session) Open(ext Extension) (*Scope, error) {
	sc := &Scope{session: s, name: ext.Name}
	for i, r := range ext.Blocks {
		if err := s.InsertBlockRecognizer(r, i); err != nil {
			return nil, errors.Join(err, sc.Close())
		}
		sc.blocks = append(sc.blocks, r.Type)
	}
	for i, r := range ext.Spans {
		if err := s.InsertSpanRecognizer(r, 1+i); err != nil {
			return nil, errors.Join(err, sc.Close())
		}
		sc.spans = append(sc.spans, r.Type)
	}
	if ext.Fallback != nil {
		s.scopedFallbacks = append(s.scopedFallbacks, scopedFallback{sc, ext.Fallback})
		sc.fallback = true
	}
	logger.Printf("scope %s opened", sc.name)
	return sc, nil
}

// Close undoes the changes made by Open. It is a no-op on a closed Scope.
//
// A recognizer that was removed from the session by other means since Open
// results in an error wrapping ErrRecognizerNotFound; Close still undoes all
// the other changes.
func (sc *Scope) Close() error {
	if sc.closed {
		return nil
	}
	sc.closed = true
	s := sc.session
	var errs []error
	for _, typ := range sc.spans {
		if err := s.RemoveSpanRecognizer(typ); err != nil {
			errs = append(errs, err)
		}
	}
	for _, typ := range sc.blocks {
		if err := s.RemoveBlockRecognizer(typ); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.fallback {
		s.scopedFallbacks = slices.DeleteFunc(s.scopedFallbacks,
			func(f scopedFallback) bool { return f.scope == sc })
	}
	logger.Printf("scope %s closed", sc.name)
	return errors.Join(errs...)
}

// With runs f with ext added to the session, undoing the changes when f
// returns or panics.
func (s *Session) With(ext Extension, f func() error) (err error) {
	sc, err := s.Open(ext)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, sc.Close()) }()
	return f()
}

type scopedFallback struct {
	scope *Scope
	rec   *SpanRecognizer
}
