// Package api is the HTTP client for the reservation service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is where the reservation service listens in development.
const DefaultBaseURL = "http://localhost:5000/api"

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 15 * time.Second

// IdempotencyHeader carries the draft id on reservation creation.
const IdempotencyHeader = "Idempotency-Key"

// maxErrorBody caps how much of an error response is read for the message.
const maxErrorBody = 64 << 10

// Client talks to the reservation service. It implements booking.Submitter.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ booking.Submitter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// New creates a client for baseURL, e.g. "http://localhost:5000/api".
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// ListStations fetches every station.
func (c *Client) ListStations(ctx context.Context) ([]booking.Station, error) {
	var out []booking.Station
	if err := c.do(ctx, "list stations", http.MethodGet, "/stations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateStation adds a station.
func (c *Client) CreateStation(ctx context.Context, s booking.Station) error {
	return c.do(ctx, "create station", http.MethodPost, "/stations", nil, s, nil)
}

// UpdateStation replaces the station stored under code.
func (c *Client) UpdateStation(ctx context.Context, code string, s booking.Station) error {
	s.Code = code
	return c.do(ctx, "update station", http.MethodPut, "/stations/"+url.PathEscape(code), nil, s, nil)
}

// DeleteStation removes a station by code.
func (c *Client) DeleteStation(ctx context.Context, code string) error {
	return c.do(ctx, "delete station", http.MethodDelete, "/stations/"+url.PathEscape(code), nil, nil, nil)
}

// ListTrains fetches every train.
func (c *Client) ListTrains(ctx context.Context) ([]booking.Train, error) {
	var out []booking.Train
	if err := c.do(ctx, "list trains", http.MethodGet, "/trains", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTrain adds a train.
func (c *Client) CreateTrain(ctx context.Context, t booking.Train) error {
	return c.do(ctx, "create train", http.MethodPost, "/trains", nil, t, nil)
}

// UpdateTrain replaces the train stored under id.
func (c *Client) UpdateTrain(ctx context.Context, id string, t booking.Train) error {
	t.ID = id
	return c.do(ctx, "update train", http.MethodPut, "/trains/"+url.PathEscape(id), nil, t, nil)
}

// DeleteTrain removes a train by id.
func (c *Client) DeleteTrain(ctx context.Context, id string) error {
	return c.do(ctx, "delete train", http.MethodDelete, "/trains/"+url.PathEscape(id), nil, nil, nil)
}

// ListReservations fetches every reservation with its passengers.
func (c *Client) ListReservations(ctx context.Context) ([]booking.Reservation, error) {
	var out []booking.Reservation
	if err := c.do(ctx, "list reservations", http.MethodGet, "/reservations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReservation fetches one reservation by PNR.
func (c *Client) GetReservation(ctx context.Context, pnr string) (*booking.Reservation, error) {
	var out booking.Reservation
	if err := c.do(ctx, "get reservation", http.MethodGet, "/reservations/"+url.PathEscape(pnr), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReservation posts a booking. The service answers with the new PNR;
// the returned reservation combines it with the request.
func (c *Client) CreateReservation(ctx context.Context, req booking.ReservationRequest) (*booking.Reservation, error) {
	var created struct {
		PNR     string `json:"pnr"`
		Message string `json:"message"`
	}
	header := http.Header{}
	if req.IdempotencyKey != "" {
		header.Set(IdempotencyHeader, req.IdempotencyKey)
	}
	if err := c.do(ctx, "create reservation", http.MethodPost, "/reservations", header, req, &created); err != nil {
		return nil, err
	}
	logger.Info("reservation %s created for train %s on %s", created.PNR, req.TrainID, req.JourneyDate)
	return &booking.Reservation{
		PNR:                created.PNR,
		TrainID:            req.TrainID,
		JourneyDate:        req.JourneyDate,
		SourceStation:      req.SourceStation,
		DestinationStation: req.DestinationStation,
		BookingStatus:      "confirmed",
		TotalFare:          req.TotalFare,
		Passengers:         req.Passengers,
		Message:            created.Message,
	}, nil
}

// DeleteReservation removes a reservation by PNR.
func (c *Client) DeleteReservation(ctx context.Context, pnr string) error {
	return c.do(ctx, "delete reservation", http.MethodDelete, "/reservations/"+url.PathEscape(pnr), nil, nil, nil)
}

// LoadReferenceData fetches stations and trains concurrently. Either failure
// fails the whole load; there is no fallback data.
func (c *Client) LoadReferenceData(ctx context.Context) (booking.ReferenceData, error) {
	var ref booking.ReferenceData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stations, err := c.ListStations(gctx)
		ref.Stations = stations
		return err
	})
	g.Go(func() error {
		trains, err := c.ListTrains(gctx)
		ref.Trains = trains
		return err
	})
	if err := g.Wait(); err != nil {
		return booking.ReferenceData{}, err
	}
	logger.Debug("loaded %d stations and %d trains", len(ref.Stations), len(ref.Trains))
	return ref, nil
}

// do performs one JSON round trip. in and out may be nil.
func (c *Client) do(ctx context.Context, op, method, path string, header http.Header, in, out any) error {
	endpoint := c.baseURL + path
	netErr := func(status int, msg string, err error) error {
		return &booking.NetworkError{Op: op, Method: method, URL: endpoint, StatusCode: status, Message: msg, Err: err}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	logger.Debug("%s %s", method, endpoint)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("%s %s failed: %v", method, endpoint, err)
		return netErr(0, "", err)
	}
	defer resp.Body.Close()
	logger.Debug("%s %s -> %d in %s", method, endpoint, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return netErr(resp.StatusCode, errorMessage(resp.Body), nil)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return netErr(resp.StatusCode, "empty response body", err)
		}
		return netErr(resp.StatusCode, "malformed response body", err)
	}
	return nil
}

// errorMessage pulls a human message out of an error body: {"error": ...},
// {"message": ...} or the raw text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}
