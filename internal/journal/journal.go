// Package journal keeps a local, append-only log of what this client did:
// reservations made and deleted, failed submissions and abandoned drafts.
// It is backed by an embedded NATS JetStream server and is not the
// reservation store.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/logger"
)

const (
	streamName    = "railbook_events"
	subjectPrefix = "railbook.bookings"
	retention     = 180 * 24 * time.Hour
)

// Action names a journal entry kind. It is also the last subject token.
type Action string

const (
	ActionReservationCreated Action = "reservation_created"
	ActionReservationDeleted Action = "reservation_deleted"
	ActionSubmitFailed       Action = "submit_failed"
	ActionDraftCancelled     Action = "draft_cancelled"
)

// Subject returns "railbook.bookings.<action>", or the wildcard subject for
// the empty action.
func (a Action) Subject() string {
	if a == "" {
		return subjectPrefix + ".>"
	}
	return subjectPrefix + "." + string(a)
}

// Entry is one journal record.
type Entry struct {
	Seq         uint64    `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	PNR         string    `json:"pnr,omitempty"`
	DraftID     string    `json:"draft_id,omitempty"`
	TrainID     string    `json:"train_id,omitempty"`
	JourneyDate string    `json:"journey_date,omitempty"`
	Source      string    `json:"source_station,omitempty"`
	Destination string    `json:"destination_station,omitempty"`
	Passengers  int       `json:"passengers,omitempty"`
	TotalFare   float64   `json:"total_fare,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// ReservationCreated records a confirmed reservation made from draftID.
func ReservationCreated(r booking.Reservation, draftID string) Entry {
	return Entry{
		Action:      ActionReservationCreated,
		PNR:         r.PNR,
		DraftID:     draftID,
		TrainID:     r.TrainID,
		JourneyDate: r.JourneyDate,
		Source:      r.SourceStation,
		Destination: r.DestinationStation,
		Passengers:  len(r.Passengers),
		TotalFare:   r.TotalFare,
	}
}

// ReservationDeleted records a cancelled reservation.
func ReservationDeleted(pnr string) Entry {
	return Entry{Action: ActionReservationDeleted, PNR: pnr}
}

// SubmitFailed records a submission the reservation service did not accept.
func SubmitFailed(req booking.ReservationRequest, err error) Entry {
	e := Entry{
		Action:      ActionSubmitFailed,
		DraftID:     req.IdempotencyKey,
		TrainID:     req.TrainID,
		JourneyDate: req.JourneyDate,
		Source:      req.SourceStation,
		Destination: req.DestinationStation,
		Passengers:  len(req.Passengers),
		TotalFare:   req.TotalFare,
	}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// DraftCancelled records a draft abandoned before submission.
func DraftCancelled(d booking.Draft) Entry {
	e := Entry{
		Action:      ActionDraftCancelled,
		DraftID:     d.ID,
		TrainID:     d.TrainID,
		Source:      d.SourceStation,
		Destination: d.DestinationStation,
		Passengers:  len(d.Passengers),
		TotalFare:   d.TotalFare(),
	}
	if !d.JourneyDate.IsZero() {
		e.JourneyDate = d.JourneyDate.Format(booking.DateLayout)
	}
	return e
}

// Journal publishes and replays entries. A nil *Journal is valid and
// discards everything, which is how a disabled journal is represented.
type Journal struct {
	st     *store
	js     jetstream.JetStream
	stream jetstream.Stream
}

// Open starts the embedded store on dir and makes sure the stream exists.
func Open(ctx context.Context, dir string) (*Journal, error) {
	st, err := openStore(dir)
	if err != nil {
		return nil, err
	}

	j := &Journal{st: st}
	if j.js, err = jetstream.New(st.nc); err != nil {
		_ = st.close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}
	j.stream, err = j.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{Action("").Subject()},
		Storage:  jetstream.FileStorage,
		MaxAge:   retention,
	})
	if err != nil {
		_ = st.close()
		return nil, fmt.Errorf("setting up journal stream in %s: %w", st.dir, err)
	}

	logger.Debug("Journal opened at %s", st.dir)
	return j, nil
}

// Record appends e, stamping it with the current time when unset.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j == nil {
		return nil
	}
	if e.Action == "" {
		return fmt.Errorf("journal entry has no action")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	ack, err := j.js.Publish(ctx, e.Action.Subject(), data)
	if err != nil {
		logger.Error("Failed to publish journal entry %s: %v", e.Action, err)
		return fmt.Errorf("failed to publish journal entry: %w", err)
	}
	logger.Debug("Journal entry recorded: action=%s seq=%d", e.Action, ack.Sequence)
	return nil
}

// History replays the journal oldest first. An empty action returns every
// entry; otherwise only entries of that action.
func (j *Journal) History(ctx context.Context, action Action) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}

	consumer, err := j.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: action.Subject(),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	const batchSize = 500
	var entries []Entry
	malformed := 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		n := 0
		for msg := range msgs.Messages() {
			n++
			meta, _ := msg.Metadata()

			var e Entry
			if err := json.Unmarshal(msg.Data(), &e); err != nil {
				malformed++
				if meta != nil {
					logger.Warn("Skipping malformed journal entry (seq=%d): %v", meta.Sequence.Stream, err)
				}
				_ = msg.Ack()
				continue
			}
			if meta != nil {
				e.Seq = meta.Sequence.Stream
			}
			entries = append(entries, e)
			_ = msg.Ack()
		}
		if n < batchSize {
			break
		}
	}

	if malformed > 0 {
		logger.Warn("Skipped %d malformed journal entries", malformed)
	}
	return entries, nil
}

// Close drains the connection and stops the embedded server.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.st.close()
}

// String is a one-line description used by `railbook history`.
func (e Entry) String() string {
	ts := e.Timestamp.Local().Format("2006-01-02 15:04")
	route := e.Source + " → " + e.Destination
	switch e.Action {
	case ActionReservationCreated:
		return fmt.Sprintf("%s  booked     %s  train %s on %s, %s, %d passenger(s)", ts, e.PNR, e.TrainID, e.JourneyDate, route, e.Passengers)
	case ActionReservationDeleted:
		return fmt.Sprintf("%s  cancelled  %s", ts, e.PNR)
	case ActionSubmitFailed:
		return fmt.Sprintf("%s  failed     draft %s: %s", ts, shortID(e.DraftID), e.Message)
	case ActionDraftCancelled:
		return fmt.Sprintf("%s  abandoned  draft %s", ts, shortID(e.DraftID))
	}
	return fmt.Sprintf("%s  %s #%s", ts, e.Action, strconv.FormatUint(e.Seq, 10))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
