package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/media"
)

// State is the position of a Session in the identification cycle.
type State int

const (
	Idle State = iota
	ImageSelected
	Identifying
	AwaitingUserDecision
	Saved
	Discarded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ImageSelected:
		return "image_selected"
	case Identifying:
		return "identifying"
	case AwaitingUserDecision:
		return "awaiting_user_decision"
	case Saved:
		return "saved"
	case Discarded:
		return "discarded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Recorder is the part of the collection store a session writes to.
type Recorder interface {
	AppendImageURI(ctx context.Context, uri string) error
	SavePlant(ctx context.Context, c collection.Candidate) (collection.Plant, error)
}

// Runner produces a candidate from an image URI. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, imageURI string) (collection.Candidate, error)
}

// SessionDeps holds the collaborators of a Session.
type SessionDeps struct {
	Permissions media.Permissions
	Picker      media.Picker
	Store       Recorder
	Pipeline    Runner
	Notifier    Notifier // optional
}

// Session is the state of one identification screen. It is safe for
// concurrent use; long running calls do not hold the lock.
type Session struct {
	deps   SessionDeps
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	image     string
	candidate *collection.Candidate
	saving    bool
	// gen changes whenever the selection is replaced or reset, so an
	// Identify that started earlier can tell its result is stale.
	gen uint64
}

// NewSession creates a Session in the Idle state.
func NewSession(deps SessionDeps) *Session {
	return &Session{deps: deps, logger: slog.Default()}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Image returns the selected image URI, or "" when none is selected.
func (s *Session) Image() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Candidate returns the identification awaiting a decision.
func (s *Session) Candidate() (collection.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		return collection.Candidate{}, false
	}
	return *s.candidate, true
}

// SelectImage asks for permission, picks an image from kind and records its
// URI. It may be called in any state and starts a new cycle.
func (s *Session) SelectImage(ctx context.Context, kind media.Kind) error {
	granted, err := s.deps.Permissions.Request(ctx, kind)
	if err != nil {
		s.logger.Warn("requesting permission", "source", kind, "error", err)
		granted = false
	}
	if !granted {
		s.notify(noticePermission)
		return ErrPermissionDenied
	}

	img, err := s.deps.Picker.Pick(ctx, kind)
	if errors.Is(err, media.ErrCancelled) {
		return err
	}
	if err != nil {
		s.logger.Error("picking image", "source", kind, "error", err)
		s.notify(Notice{LevelError, "Error", err.Error()})
		return err
	}

	s.mu.Lock()
	s.gen++
	s.state = ImageSelected
	s.image = img.URI
	s.candidate = nil
	s.mu.Unlock()

	if err := s.deps.Store.AppendImageURI(ctx, img.URI); err != nil {
		s.logger.Error("saving image uri", "uri", img.URI, "error", err)
		s.notify(noticeImageError)
		return err
	}
	return nil
}

// Identify runs the pipeline on the selected image. On success the session
// waits for ConfirmSave or Discard.
func (s *Session) Identify(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Idle || s.image == "" {
		s.mu.Unlock()
		s.notify(noticeNoImage)
		return ErrNoImageSelected
	}
	if s.state != ImageSelected {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: identify from %s", ErrInvalidState, st)
	}
	s.state = Identifying
	gen := s.gen
	uri := s.image
	s.mu.Unlock()

	c, err := s.deps.Pipeline.Run(ctx, uri)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale identification", "image", uri)
		return ErrStale
	}
	if err != nil {
		s.state = ImageSelected
		s.mu.Unlock()
		if errors.Is(err, ErrNoCandidates) {
			s.notify(noticeNoPlant)
		} else {
			s.notify(noticeIdentifyError)
		}
		return err
	}
	s.state = AwaitingUserDecision
	s.candidate = &c
	s.mu.Unlock()
	return nil
}

// ConfirmSave persists the candidate together with the selected image.
func (s *Session) ConfirmSave(ctx context.Context) (collection.Plant, error) {
	s.mu.Lock()
	if s.state != AwaitingUserDecision || s.candidate == nil || s.saving {
		st := s.state
		s.mu.Unlock()
		return collection.Plant{}, fmt.Errorf("%w: save from %s", ErrInvalidState, st)
	}
	s.saving = true
	gen := s.gen
	c := *s.candidate
	c.Image = s.image
	s.mu.Unlock()

	p, err := s.deps.Store.SavePlant(ctx, c)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("saving plant", "name", c.Name, "error", err)
		s.notify(noticeSaveError)
		return collection.Plant{}, err
	}
	// A Reset during the save keeps its own state; the record is stored either way.
	if s.gen == gen {
		s.gen++
		s.state = Saved
	}
	s.mu.Unlock()

	s.notify(noticeSaved)
	return p, nil
}

// Discard drops the candidate without saving it.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AwaitingUserDecision || s.saving {
		return fmt.Errorf("%w: discard from %s", ErrInvalidState, s.state)
	}
	s.gen++
	s.state = Discarded
	s.candidate = nil
	return nil
}

// Reset returns the session to Idle and invalidates any identification in flight.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = Idle
	s.image = ""
	s.candidate = nil
}

// notify is never called with s.mu held, so a Notifier may read the session.
func (s *Session) notify(n Notice) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(n)
	}
}
