package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Step is a wizard page.
type Step int

const (
	StepJourney Step = iota
	StepPassengers
	StepReview
)

// StepCount is the number of wizard pages.
const StepCount = 3

func (s Step) String() string {
	switch s {
	case StepJourney:
		return "journey"
	case StepPassengers:
		return "passengers"
	case StepReview:
		return "review"
	}
	return "unknown"
}

// Submitter creates reservations on the reservation service.
type Submitter interface {
	CreateReservation(ctx context.Context, req ReservationRequest) (*Reservation, error)
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithClock overrides the clock used to reject past journey dates.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// WithSubmitter sets the collaborator used by Submit.
func WithSubmitter(s Submitter) Option {
	return func(w *Wizard) { w.submitter = s }
}

// WithDraft seeds the wizard with an existing draft, e.g. one loaded from a
// booking file. Passengers are padded to at least one.
func WithDraft(d Draft) Option {
	return func(w *Wizard) {
		d = d.clone()
		if d.ID == "" {
			d.ID = NewDraft().ID
		}
		if len(d.Passengers) == 0 {
			d.Passengers = []Passenger{{}}
		}
		w.draft = d
	}
}

// Wizard is the booking state machine. It owns a single Draft and moves it
// through journey, passengers and review. All methods are safe to call from
// multiple goroutines; a UI normally drives it from one.
type Wizard struct {
	mu sync.Mutex

	ref       ReferenceData
	submitter Submitter
	now       func() time.Time

	step    Step
	draft   Draft
	pending bool
	closed  bool
}

// NewWizard opens a wizard on an empty draft at the journey step.
func NewWizard(ref ReferenceData, opts ...Option) *Wizard {
	w := &Wizard{
		ref:   ref,
		now:   time.Now,
		draft: NewDraft(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Step returns the current page.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.clone()
}

// Reference returns the lookup data the wizard was built with.
func (w *Wizard) Reference() ReferenceData { return w.ref }

// Pending reports whether a submission is in flight.
func (w *Wizard) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Closed reports whether the wizard was cancelled.
func (w *Wizard) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Validate checks the current step without moving. It returns nil or a
// *ValidationError.
func (w *Wizard) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validateLocked()
}

func (w *Wizard) validateLocked() error {
	var fields []FieldError
	switch w.step {
	case StepJourney:
		fields = validateJourney(w.draft, w.now())
	case StepPassengers:
		fields = validatePassengers(w.draft.Passengers)
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Step: w.step, Fields: fields}
}

// Advance moves to the next step if the current one is complete. At the
// review step it does nothing.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.usable("advance"); err != nil {
		return err
	}
	if w.step == StepReview {
		return nil
	}
	if err := w.validateLocked(); err != nil {
		return err
	}
	w.step++
	return nil
}

// Retreat moves back one step. At the journey step it does nothing.
func (w *Wizard) Retreat() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.usable("retreat"); err != nil {
		return err
	}
	if w.step > StepJourney {
		w.step--
	}
	return nil
}

// SetTrain selects the train by id.
func (w *Wizard) SetTrain(id string) error {
	return w.editJourney("set train", func(d *Draft) { d.TrainID = strings.TrimSpace(id) })
}

// SetJourneyDate sets the travel date. A zero time clears it.
func (w *Wizard) SetJourneyDate(date time.Time) error {
	return w.editJourney("set journey date", func(d *Draft) { d.JourneyDate = date })
}

// SetSourceStation sets the departure station code.
func (w *Wizard) SetSourceStation(code string) error {
	return w.editJourney("set source station", func(d *Draft) { d.SourceStation = strings.TrimSpace(code) })
}

// SetDestinationStation sets the arrival station code.
func (w *Wizard) SetDestinationStation(code string) error {
	return w.editJourney("set destination station", func(d *Draft) { d.DestinationStation = strings.TrimSpace(code) })
}

func (w *Wizard) editJourney(op string, fn func(*Draft)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.usable(op); err != nil {
		return err
	}
	if w.step != StepJourney {
		return invalidOp(op, "journey details can only change at the journey step, wizard is at %s", w.step)
	}
	fn(&w.draft)
	return nil
}

// BeginSubmit marks a submission as in flight and returns the request to send.
// The caller must report the outcome with FinishSubmit.
func (w *Wizard) BeginSubmit() (ReservationRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	const op = "submit"
	if err := w.usable(op); err != nil {
		return ReservationRequest{}, err
	}
	if w.step != StepReview {
		return ReservationRequest{}, invalidOp(op, "only available at the review step, wizard is at %s", w.step)
	}
	if fields := validateJourney(w.draft, w.now()); len(fields) > 0 {
		return ReservationRequest{}, &ValidationError{Step: StepJourney, Fields: fields}
	}
	if fields := validatePassengers(w.draft.Passengers); len(fields) > 0 {
		return ReservationRequest{}, &ValidationError{Step: StepPassengers, Fields: fields}
	}
	w.pending = true
	return w.draft.Request(), nil
}

// FinishSubmit applies the outcome of a submission started by BeginSubmit.
// On success the wizard starts over with a fresh draft. On failure the draft
// and step are kept so the user can retry. Transport failures come back as a
// *NetworkError; a request that could not be built comes back as a plain error.
func (w *Wizard) FinishSubmit(res *Reservation, err error) (*Reservation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.pending {
		return nil, invalidOp("finish submit", "no submission in flight")
	}
	w.pending = false

	if err != nil {
		var netErr *NetworkError
		switch {
		case errors.As(err, &netErr):
		case isTransport(err):
			err = &NetworkError{Op: "create reservation", Method: "POST", Err: err}
		default:
			err = fmt.Errorf("create reservation: %w", err)
		}
		return nil, err
	}
	if res == nil || res.PNR == "" {
		return nil, &NetworkError{Op: "create reservation", Method: "POST", Message: "response carried no PNR"}
	}

	w.draft = NewDraft()
	w.step = StepJourney
	return res, nil
}

// Submit sends the draft through the configured Submitter and waits for the
// result. A second Submit while one is pending is rejected.
func (w *Wizard) Submit(ctx context.Context) (*Reservation, error) {
	if w.submitter == nil {
		return nil, invalidOp("submit", "no reservation service configured")
	}
	req, err := w.BeginSubmit()
	if err != nil {
		return nil, err
	}
	res, err := w.submitter.CreateReservation(ctx, req)
	return w.FinishSubmit(res, err)
}

// Cancel discards the draft and closes the wizard. It is refused while a
// submission is in flight.
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	if w.pending {
		return invalidOp("cancel", "a submission is in flight")
	}
	w.closed = true
	w.draft = NewDraft()
	w.step = StepJourney
	return nil
}

// usable rejects any operation on a closed wizard or during a submission.
func (w *Wizard) usable(op string) error {
	if w.closed {
		return invalidOp(op, "wizard is closed")
	}
	if w.pending {
		return invalidOp(op, "a submission is in flight")
	}
	return nil
}

// editable additionally keeps the review step read-only.
func (w *Wizard) editable(op string) error {
	if err := w.usable(op); err != nil {
		return err
	}
	if w.step == StepReview {
		return invalidOp(op, "the review step is read-only")
	}
	return nil
}
