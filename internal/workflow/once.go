package workflow

import (
	"context"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/media"
)

// Decision reports whether a candidate should be kept.
type Decision func(collection.Candidate) bool

// Always and Never are fixed decisions.
var (
	Always Decision = func(collection.Candidate) bool { return true }
	Never  Decision = func(collection.Candidate) bool { return false }
)

// Result is the outcome of one identification cycle.
type Result struct {
	Image     string
	Candidate collection.Candidate
	Saved     *collection.Plant // nil when the candidate was discarded
}

// RunOnce drives a fresh Session through select, identify and decide.
// A nil decide discards the candidate.
func RunOnce(ctx context.Context, deps SessionDeps, kind media.Kind, decide Decision) (Result, error) {
	s := NewSession(deps)
	if err := s.SelectImage(ctx, kind); err != nil {
		return Result{Image: s.Image()}, err
	}

	res := Result{Image: s.Image()}
	if err := s.Identify(ctx); err != nil {
		return res, err
	}
	res.Candidate, _ = s.Candidate()

	if decide == nil || !decide(res.Candidate) {
		return res, s.Discard()
	}
	p, err := s.ConfirmSave(ctx)
	if err != nil {
		return res, err
	}
	res.Saved = &p
	return res, nil
}
