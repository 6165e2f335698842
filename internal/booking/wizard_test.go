package booking

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2025, 5, 20, 15, 30, 0, 0, time.UTC)

func testReference() ReferenceData {
	return ReferenceData{
		Stations: []Station{
			{Code: "MUM", Name: "Mumbai Central", TotalPlatforms: 12},
			{Code: "DEL", Name: "New Delhi", TotalPlatforms: 16},
			{Code: "BLR", Name: "Bangalore City", TotalPlatforms: 10},
		},
		Trains: []Train{
			{ID: "T1", Name: "Test Express", Type: "express", TotalCapacity: 500, Frequency: "daily"},
			{ID: "12301", Name: "Rajdhani Express", Type: "express", TotalCapacity: 800, Frequency: "daily"},
		},
	}
}

// fakeSubmitter records requests and answers with res or err.
type fakeSubmitter struct {
	mu       sync.Mutex
	requests []ReservationRequest
	res      *Reservation
	err      error
	block    chan struct{}
	entered  chan struct{}
}

func (f *fakeSubmitter) CreateReservation(ctx context.Context, req ReservationRequest) (*Reservation, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	return f.res, f.err
}

func newTestWizard(t *testing.T, opts ...Option) *Wizard {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testToday })}, opts...)
	return NewWizard(testReference(), opts...)
}

// fillJourney sets the scenario journey: T1, 2025-06-01, MUM -> DEL.
func fillJourney(t *testing.T, w *Wizard) {
	t.Helper()
	require.NoError(t, w.SetTrain("T1"))
	require.NoError(t, w.SetJourneyDate(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, w.SetSourceStation("MUM"))
	require.NoError(t, w.SetDestinationStation("DEL"))
}

func fillPassenger(t *testing.T, w *Wizard, i int, first, last, phone, fare string) {
	t.Helper()
	require.NoError(t, w.UpdatePassengerField(i, FieldFirstName, first))
	require.NoError(t, w.UpdatePassengerField(i, FieldLastName, last))
	require.NoError(t, w.UpdatePassengerField(i, FieldPhone, phone))
	require.NoError(t, w.UpdatePassengerField(i, FieldFare, fare))
}

// toReview drives a wizard with the scenario draft to the review step.
func toReview(t *testing.T, w *Wizard) {
	t.Helper()
	fillJourney(t, w)
	require.NoError(t, w.Advance())
	fillPassenger(t, w, 0, "A", "B", "123", "100")
	require.NoError(t, w.Advance())
	require.Equal(t, StepReview, w.Step())
}

func TestNewWizardStartsEmpty(t *testing.T) {
	w := newTestWizard(t)

	assert.Equal(t, StepJourney, w.Step())
	d := w.Draft()
	assert.NotEmpty(t, d.ID)
	assert.Empty(t, d.TrainID)
	assert.True(t, d.JourneyDate.IsZero())
	require.Len(t, d.Passengers, 1)
	assert.Equal(t, Passenger{}, d.Passengers[0])
	assert.False(t, w.Pending())
	assert.False(t, w.Closed())
}

func TestAdvanceJourneyRequiresEveryField(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		train   string
		date    time.Time
		source  string
		dest    string
		field   string
		message string
	}{
		{"missing train", "", date, "MUM", "DEL", FieldTrain, "select a train"},
		{"missing date", "T1", time.Time{}, "MUM", "DEL", FieldJourneyDate, "select a journey date"},
		{"missing source", "T1", date, "", "DEL", FieldSourceStation, "select a source station"},
		{"missing destination", "T1", date, "MUM", "", FieldDestinationStation, "select a destination station"},
		{"same stations", "T1", date, "MUM", "MUM", FieldDestinationStation, "destination must differ from source"},
		{"same stations ignoring case", "T1", date, "mum", "MUM", FieldDestinationStation, "destination must differ from source"},
		{"date in the past", "T1", time.Date(2025, 5, 19, 0, 0, 0, 0, time.UTC), "MUM", "DEL", FieldJourneyDate, "journey date is in the past"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWizard(t)
			require.NoError(t, w.SetTrain(tt.train))
			require.NoError(t, w.SetJourneyDate(tt.date))
			require.NoError(t, w.SetSourceStation(tt.source))
			require.NoError(t, w.SetDestinationStation(tt.dest))

			err := w.Advance()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, StepJourney, verr.Step)
			assert.Contains(t, verr.For(JourneyField, tt.field), tt.message)
			assert.Equal(t, StepJourney, w.Step())
		})
	}
}

func TestAdvanceAcceptsJourneyToday(t *testing.T) {
	w := newTestWizard(t)
	fillJourney(t, w)
	require.NoError(t, w.SetJourneyDate(time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, w.Advance())
	assert.Equal(t, StepPassengers, w.Step())
}

func TestAdvancePassengersRequiresEveryPassenger(t *testing.T) {
	w := newTestWizard(t)
	fillJourney(t, w)
	require.NoError(t, w.Advance())

	fillPassenger(t, w, 0, "A", "B", "123", "100")
	_, err := w.AddPassenger()
	require.NoError(t, err)
	require.NoError(t, w.UpdatePassengerField(1, FieldFirstName, "C"))
	require.NoError(t, w.UpdatePassengerField(1, FieldEmail, "not-an-address"))

	err = w.Advance()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepPassengers, verr.Step)
	assert.Empty(t, verr.For(0, string(FieldFirstName)))
	assert.Equal(t, []string{"last name is required"}, verr.For(1, string(FieldLastName)))
	assert.Equal(t, []string{"phone is required"}, verr.For(1, string(FieldPhone)))
	assert.Equal(t, []string{"fare must be greater than 0"}, verr.For(1, string(FieldFare)))
	assert.Equal(t, []string{"email address is malformed"}, verr.For(1, string(FieldEmail)))
	assert.Equal(t, StepPassengers, w.Step())

	fillPassenger(t, w, 1, "C", "D", "456", "50.5")
	require.NoError(t, w.UpdatePassengerField(1, FieldEmail, "c.d@example.com"))
	require.NoError(t, w.Advance())
	assert.Equal(t, StepReview, w.Step())
}

func TestAdvanceAtReviewIsNoop(t *testing.T) {
	w := newTestWizard(t)
	toReview(t, w)

	require.NoError(t, w.Advance())
	assert.Equal(t, StepReview, w.Step())
}

func TestRetreat(t *testing.T) {
	w := newTestWizard(t)

	require.NoError(t, w.Retreat())
	assert.Equal(t, StepJourney, w.Step(), "retreat at the first step is a no-op")

	toReview(t, w)
	require.NoError(t, w.Retreat())
	assert.Equal(t, StepPassengers, w.Step())
	require.NoError(t, w.Retreat())
	assert.Equal(t, StepJourney, w.Step())

	d := w.Draft()
	assert.Equal(t, "T1", d.TrainID, "retreat keeps the draft")
	assert.Equal(t, "A", d.Passengers[0].FirstName)
}

func TestReviewIsReadOnly(t *testing.T) {
	w := newTestWizard(t)
	toReview(t, w)

	err := w.SetTrain("12301")
	assert.ErrorIs(t, err, ErrInvalidOperation)
	_, err = w.AddPassenger()
	assert.ErrorIs(t, err, ErrInvalidOperation)
	err = w.UpdatePassengerField(0, FieldFirstName, "Z")
	assert.ErrorIs(t, err, ErrInvalidOperation)

	d := w.Draft()
	assert.Equal(t, "T1", d.TrainID)
	assert.Equal(t, "A", d.Passengers[0].FirstName)
}

func TestJourneyLockedAfterJourneyStep(t *testing.T) {
	w := newTestWizard(t)
	fillJourney(t, w)
	require.NoError(t, w.Advance())
	require.Equal(t, StepPassengers, w.Step())

	assert.ErrorIs(t, w.SetTrain(""), ErrInvalidOperation)
	assert.ErrorIs(t, w.SetJourneyDate(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), ErrInvalidOperation)
	assert.ErrorIs(t, w.SetSourceStation("DEL"), ErrInvalidOperation)
	assert.ErrorIs(t, w.SetDestinationStation("MUM"), ErrInvalidOperation)

	d := w.Draft()
	assert.Equal(t, "T1", d.TrainID)
	assert.Equal(t, "2025-06-01", d.JourneyDate.Format(DateLayout))
	assert.Equal(t, "MUM", d.SourceStation)
	assert.Equal(t, "DEL", d.DestinationStation)

	require.NoError(t, w.Retreat())
	assert.NoError(t, w.SetDestinationStation("BLR"))
	assert.Equal(t, "BLR", w.Draft().DestinationStation)
}

func TestSubmitRevalidatesDraft(t *testing.T) {
	today := testToday
	sub := &fakeSubmitter{res: &Reservation{PNR: "ABCD1234"}}
	w := NewWizard(testReference(), WithSubmitter(sub), WithClock(func() time.Time { return today }))
	toReview(t, w)

	// The journey date passes while the user sits on the review step.
	today = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	_, err := w.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepJourney, verr.Step)
	assert.Equal(t, []string{"journey date is in the past"}, verr.For(JourneyField, FieldJourneyDate))
	assert.Empty(t, sub.requests)
	assert.False(t, w.Pending())
	assert.Equal(t, StepReview, w.Step())
}

func TestSubmitOnlyAtReview(t *testing.T) {
	sub := &fakeSubmitter{res: &Reservation{PNR: "ABCD1234"}}
	w := newTestWizard(t, WithSubmitter(sub))
	fillJourney(t, w)

	_, err := w.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidOperation)
	assert.Empty(t, sub.requests)
	assert.False(t, w.Pending())
}

func TestSubmitSuccessResetsWizard(t *testing.T) {
	sub := &fakeSubmitter{res: &Reservation{PNR: "ABCD1234", BookingStatus: "confirmed"}}
	w := newTestWizard(t, WithSubmitter(sub))
	toReview(t, w)
	before := w.Draft()

	res, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", res.PNR)

	require.Len(t, sub.requests, 1)
	req := sub.requests[0]
	assert.Equal(t, "T1", req.TrainID)
	assert.Equal(t, "2025-06-01", req.JourneyDate)
	assert.Equal(t, "MUM", req.SourceStation)
	assert.Equal(t, "DEL", req.DestinationStation)
	assert.Equal(t, 100.0, req.TotalFare)
	assert.Equal(t, before.ID, req.IdempotencyKey)
	require.Len(t, req.Passengers, 1)
	assert.Equal(t, "A", req.Passengers[0].FirstName)

	assert.Equal(t, StepJourney, w.Step())
	after := w.Draft()
	assert.NotEqual(t, before.ID, after.ID, "a fresh draft gets a new id")
	assert.Empty(t, after.TrainID)
	assert.Empty(t, after.SourceStation)
	assert.Empty(t, after.DestinationStation)
	assert.True(t, after.JourneyDate.IsZero())
	assert.Equal(t, []Passenger{{}}, after.Passengers)
	assert.False(t, w.Pending())
}

func TestSubmitNetworkFailureKeepsState(t *testing.T) {
	transport := errors.New("connection refused")
	sub := &fakeSubmitter{err: &NetworkError{Op: "create reservation", Method: "POST", URL: "http://x/api/reservations", Err: transport}}
	w := newTestWizard(t, WithSubmitter(sub))
	toReview(t, w)
	before := w.Draft()

	res, err := w.Submit(context.Background())
	require.Nil(t, res)
	require.ErrorIs(t, err, ErrNetwork)
	require.ErrorIs(t, err, transport)

	assert.Equal(t, StepReview, w.Step())
	assert.Equal(t, before, w.Draft())
	assert.False(t, w.Pending())

	// A retry reuses the same idempotency key.
	sub.err = nil
	sub.res = &Reservation{PNR: "RETRY001"}
	res, err = w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RETRY001", res.PNR)
	require.Len(t, sub.requests, 2)
	assert.Equal(t, sub.requests[0].IdempotencyKey, sub.requests[1].IdempotencyKey)
}

func TestSubmitWrapsPlainErrors(t *testing.T) {
	sub := &fakeSubmitter{err: context.DeadlineExceeded}
	w := newTestWizard(t, WithSubmitter(sub))
	toReview(t, w)

	_, err := w.Submit(context.Background())
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, netErr.Retryable())
	assert.Equal(t, StepReview, w.Step())
}

func TestSubmitLocalFailureIsNotRetryable(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("encode request: json: unsupported value: NaN")}
	w := newTestWizard(t, WithSubmitter(sub))
	toReview(t, w)
	before := w.Draft()

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNetwork)
	var netErr *NetworkError
	assert.False(t, errors.As(err, &netErr))
	assert.Contains(t, err.Error(), "create reservation: encode request")
	assert.Equal(t, StepReview, w.Step())
	assert.False(t, w.Pending())
	assert.Equal(t, before, w.Draft())
}

func TestSubmitWithoutPNRIsNetworkError(t *testing.T) {
	sub := &fakeSubmitter{res: &Reservation{}}
	w := newTestWizard(t, WithSubmitter(sub))
	toReview(t, w)

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, StepReview, w.Step())
}

func TestSecondSubmitWhilePendingIsRejected(t *testing.T) {
	sub := &fakeSubmitter{
		res:     &Reservation{PNR: "ABCD1234"},
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	w := newTestWizard(t, WithSubmitter(sub))
	toReview(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-sub.entered

	assert.True(t, w.Pending())
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.ErrorIs(t, w.Cancel(), ErrInvalidOperation)
	assert.ErrorIs(t, w.Retreat(), ErrInvalidOperation)

	close(sub.block)
	require.NoError(t, <-done)
	assert.Len(t, sub.requests, 1)
	assert.Equal(t, StepJourney, w.Step())
}

func TestBeginFinishSubmit(t *testing.T) {
	w := newTestWizard(t)
	toReview(t, w)

	req, err := w.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, "T1", req.TrainID)
	assert.True(t, w.Pending())

	_, err = w.BeginSubmit()
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = w.FinishSubmit(nil, errors.New("boom"))
	assert.ErrorIs(t, err, ErrNetwork)
	assert.False(t, w.Pending())
	assert.Equal(t, StepReview, w.Step())

	_, err = w.FinishSubmit(&Reservation{PNR: "X"}, nil)
	assert.ErrorIs(t, err, ErrInvalidOperation, "finish without begin")
}

func TestSubmitWithoutSubmitter(t *testing.T) {
	w := newTestWizard(t)
	toReview(t, w)

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.False(t, w.Pending())
}

func TestCancelClosesWizard(t *testing.T) {
	sub := &fakeSubmitter{}
	w := newTestWizard(t, WithSubmitter(sub))
	fillJourney(t, w)

	require.NoError(t, w.Cancel())
	assert.True(t, w.Closed())
	assert.Empty(t, w.Draft().TrainID)
	assert.Len(t, w.Draft().Passengers, 1)
	assert.Empty(t, sub.requests)

	assert.ErrorIs(t, w.Advance(), ErrInvalidOperation)
	assert.ErrorIs(t, w.SetTrain("T1"), ErrInvalidOperation)
	_, err := w.AddPassenger()
	assert.ErrorIs(t, err, ErrInvalidOperation)
	require.NoError(t, w.Cancel(), "cancelling twice is harmless")
}

func TestWithDraftSeedsWizard(t *testing.T) {
	w := newTestWizard(t, WithDraft(Draft{TrainID: "T1"}))

	d := w.Draft()
	assert.Equal(t, "T1", d.TrainID)
	assert.NotEmpty(t, d.ID)
	assert.Len(t, d.Passengers, 1)
}

func TestDraftIsACopy(t *testing.T) {
	w := newTestWizard(t)
	d := w.Draft()
	d.Passengers[0].FirstName = "Mallory"

	assert.Empty(t, w.Draft().Passengers[0].FirstName)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{
		Step: StepPassengers,
		Fields: []FieldError{
			{Passenger: 0, Field: "phone", Message: "phone is required"},
			{Passenger: JourneyField, Field: "train_id", Message: "select a train"},
		},
	}
	assert.Equal(t, "passengers step is incomplete: passenger 1 phone: phone is required; train_id: select a train", err.Error())
}

func TestNetworkErrorRetryable(t *testing.T) {
	dialErr := &url.Error{Op: "Post", URL: "http://127.0.0.1:1/api/reservations", Err: errors.New("connection refused")}
	tests := []struct {
		name   string
		status int
		err    error
		want   bool
	}{
		{"no cause", 0, nil, false},
		{"encode failure", 0, errors.New("json: unsupported value: NaN"), false},
		{"connection refused", 0, dialErr, true},
		{"deadline", 0, context.DeadlineExceeded, true},
		{"bad request", 400, nil, false},
		{"not found", 404, nil, false},
		{"request timeout", 408, nil, true},
		{"too many requests", 429, nil, true},
		{"internal", 500, nil, true},
		{"unavailable", 503, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &NetworkError{StatusCode: tt.status, Err: tt.err}
			assert.Equal(t, tt.want, e.Retryable())
		})
	}
}
