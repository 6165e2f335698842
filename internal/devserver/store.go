package devserver

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/railbook/railbook/internal/booking"
)

var (
	errNotFound = errors.New("not found")
	errExists   = errors.New("already exists")
)

// Store is the in-memory data behind the development server.
type Store struct {
	mu           sync.RWMutex
	stations     []booking.Station
	trains       []booking.Train
	reservations map[string]booking.Reservation
	order        []string          // PNRs in creation order
	idempotency  map[string]string // Idempotency-Key -> PNR
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		reservations: make(map[string]booking.Reservation),
		idempotency:  make(map[string]string),
	}
}

// NewSeededStore returns a store holding the default stations and trains.
func NewSeededStore() *Store {
	s := NewStore()
	s.stations = append(s.stations, SeedStations...)
	s.trains = append(s.trains, SeedTrains...)
	return s
}

func (s *Store) Stations() []booking.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]booking.Station{}, s.stations...)
}

func (s *Store) AddStation(st booking.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.stations {
		if strings.EqualFold(existing.Code, st.Code) {
			return errExists
		}
	}
	s.stations = append(s.stations, st)
	return nil
}

// UpdateStation replaces the station with the given code. The code itself
// does not change.
func (s *Store) UpdateStation(code string, st booking.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.stations {
		if strings.EqualFold(existing.Code, code) {
			st.Code = existing.Code
			s.stations[i] = st
			return nil
		}
	}
	return errNotFound
}

func (s *Store) DeleteStation(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.stations {
		if strings.EqualFold(existing.Code, code) {
			s.stations = append(s.stations[:i], s.stations[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *Store) Trains() []booking.Train {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]booking.Train{}, s.trains...)
}

func (s *Store) AddTrain(t booking.Train) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.trains {
		if strings.EqualFold(existing.ID, t.ID) {
			return errExists
		}
	}
	s.trains = append(s.trains, t)
	return nil
}

// UpdateTrain replaces the train with the given id, keeping the id.
func (s *Store) UpdateTrain(id string, t booking.Train) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.trains {
		if strings.EqualFold(existing.ID, id) {
			t.ID = existing.ID
			s.trains[i] = t
			return nil
		}
	}
	return errNotFound
}

func (s *Store) DeleteTrain(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.trains {
		if strings.EqualFold(existing.ID, id) {
			s.trains = append(s.trains[:i], s.trains[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *Store) reference() booking.ReferenceData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return booking.ReferenceData{
		Stations: append([]booking.Station{}, s.stations...),
		Trains:   append([]booking.Train{}, s.trains...),
	}
}

// CreateReservation stores r under a new PNR. A repeated idempotency key
// returns the reservation created the first time and created=false.
func (s *Store) CreateReservation(r booking.Reservation, key string) (res booking.Reservation, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if pnr, ok := s.idempotency[key]; ok {
			if prev, ok := s.reservations[pnr]; ok {
				return prev, false
			}
		}
	}

	r.PNR = s.newPNR()
	s.reservations[r.PNR] = r
	s.order = append(s.order, r.PNR)
	if key != "" {
		s.idempotency[key] = r.PNR
	}
	return r, true
}

// newPNR returns the first eight characters of a fresh UUID, upper-cased.
func (s *Store) newPNR() string {
	for {
		pnr := strings.ToUpper(uuid.NewString()[:8])
		if _, taken := s.reservations[pnr]; !taken {
			return pnr
		}
	}
}

func (s *Store) Reservation(pnr string) (booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[strings.ToUpper(pnr)]
	if !ok {
		return booking.Reservation{}, errNotFound
	}
	return r, nil
}

func (s *Store) Reservations() []booking.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]booking.Reservation, 0, len(s.order))
	for _, pnr := range s.order {
		out = append(out, s.reservations[pnr])
	}
	return out
}

func (s *Store) DeleteReservation(pnr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pnr = strings.ToUpper(pnr)
	if _, ok := s.reservations[pnr]; !ok {
		return errNotFound
	}
	delete(s.reservations, pnr)
	for i, p := range s.order {
		if p == pnr {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for key, p := range s.idempotency {
		if p == pnr {
			delete(s.idempotency, key)
		}
	}
	return nil
}
