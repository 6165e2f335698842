// Package devserver is a small in-memory reservation service with the same
// REST surface as the real backend. It backs "railbook serve" and tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/logger"
)

// Server serves the reservation API over a Store.
type Server struct {
	store  *Store
	router *gin.Engine
}

// New builds a server over store with all routes registered under /api.
func New(store *Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{store: store}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("reservation service listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down reservation service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe binds addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.GET("/stations", s.listStations)
		api.POST("/stations", s.createStation)
		api.PUT("/stations/:code", s.updateStation)
		api.DELETE("/stations/:code", s.deleteStation)

		api.GET("/trains", s.listTrains)
		api.POST("/trains", s.createTrain)
		api.PUT("/trains/:id", s.updateTrain)
		api.DELETE("/trains/:id", s.deleteTrain)

		api.GET("/reservations", s.listReservations)
		api.POST("/reservations", s.createReservation)
		api.GET("/reservations/:pnr", s.getReservation)
		api.DELETE("/reservations/:pnr", s.deleteReservation)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return router
}

// requestLogger sends one line per request to the railbook log.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("devserver: %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

type stationRequest struct {
	Code           string   `json:"station_code" binding:"required,max=10"`
	Name           string   `json:"station_name" binding:"required"`
	Latitude       *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" binding:"omitempty,longitude"`
	TotalPlatforms int      `json:"total_platforms" binding:"gte=0"`
	Facilities     string   `json:"facilities"`
}

type trainRequest struct {
	ID                string `json:"train_id" binding:"required"`
	Name              string `json:"train_name" binding:"required"`
	Type              string `json:"train_type" binding:"required,oneof=express passenger special devotional"`
	TotalCapacity     int    `json:"total_capacity" binding:"gt=0"`
	Frequency         string `json:"frequency" binding:"required,oneof=daily weekly bi-weekly special"`
	SpecialAttributes string `json:"special_attributes"`
}

func (r stationRequest) station() booking.Station {
	return booking.Station{
		Code:           strings.ToUpper(r.Code),
		Name:           r.Name,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		TotalPlatforms: r.TotalPlatforms,
		Facilities:     r.Facilities,
	}
}

func (r trainRequest) train() booking.Train {
	return booking.Train{
		ID:                r.ID,
		Name:              r.Name,
		Type:              r.Type,
		TotalCapacity:     r.TotalCapacity,
		Frequency:         r.Frequency,
		SpecialAttributes: r.SpecialAttributes,
	}
}

type reservationRequest struct {
	TrainID            string             `json:"train_id" binding:"required"`
	JourneyDate        string             `json:"journey_date" binding:"required,datetime=2006-01-02"`
	SourceStation      string             `json:"source_station" binding:"required"`
	DestinationStation string             `json:"destination_station" binding:"required,nefield=SourceStation"`
	TotalFare          float64            `json:"total_fare" binding:"required,gt=0"`
	Passengers         []passengerRequest `json:"passengers" binding:"required,min=1,dive"`
}

type passengerRequest struct {
	FirstName           string  `json:"first_name" binding:"required"`
	LastName            string  `json:"last_name" binding:"required"`
	Email               string  `json:"email" binding:"omitempty,email"`
	Phone               string  `json:"phone" binding:"required"`
	DateOfBirth         string  `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender              string  `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	Address             string  `json:"address"`
	SpecialRequirements string  `json:"special_requirements"`
	Fare                float64 `json:"fare" binding:"required,gt=0"`
}

func (s *Server) listStations(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Stations())
}

func (s *Server) createStation(c *gin.Context) {
	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st := req.station()
	if err := s.store.AddStation(st); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("station %s already exists", st.Code)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Station created successfully"})
}

func (s *Server) updateStation(c *gin.Context) {
	code := c.Param("code")
	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.EqualFold(req.Code, code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("station_code %s does not match %s", req.Code, code)})
		return
	}
	if err := s.store.UpdateStation(code, req.station()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Station updated successfully"})
}

func (s *Server) deleteStation(c *gin.Context) {
	if err := s.store.DeleteStation(c.Param("code")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Station deleted successfully"})
}

func (s *Server) listTrains(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Trains())
}

func (s *Server) createTrain(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t := req.train()
	if err := s.store.AddTrain(t); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("train %s already exists", t.ID)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Train created successfully"})
}

func (s *Server) updateTrain(c *gin.Context) {
	id := c.Param("id")
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.EqualFold(req.ID, id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("train_id %s does not match %s", req.ID, id)})
		return
	}
	if err := s.store.UpdateTrain(id, req.train()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "train not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Train updated successfully"})
}

func (s *Server) deleteTrain(c *gin.Context) {
	if err := s.store.DeleteTrain(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "train not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Train deleted successfully"})
}

func (s *Server) listReservations(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Reservations())
}

func (s *Server) getReservation(c *gin.Context) {
	r, err := s.store.Reservation(c.Param("pnr"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) createReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.EqualFold(req.SourceStation, req.DestinationStation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and destination stations must differ"})
		return
	}

	ref := s.store.reference()
	if _, ok := ref.Train(req.TrainID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown train %s", req.TrainID)})
		return
	}
	for _, code := range []string{req.SourceStation, req.DestinationStation} {
		if _, ok := ref.Station(code); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown station %s", code)})
			return
		}
	}

	r := booking.Reservation{
		TrainID:            req.TrainID,
		JourneyDate:        req.JourneyDate,
		SourceStation:      strings.ToUpper(req.SourceStation),
		DestinationStation: strings.ToUpper(req.DestinationStation),
		BookingStatus:      "confirmed",
		TotalFare:          req.TotalFare,
	}
	for _, p := range req.Passengers {
		r.Passengers = append(r.Passengers, booking.PassengerRequest(p))
	}

	r, created := s.store.CreateReservation(r, c.GetHeader("Idempotency-Key"))
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
		logger.Debug("devserver: replayed reservation %s for idempotency key", r.PNR)
	}
	c.JSON(status, gin.H{"pnr": r.PNR, "message": "Reservation created successfully"})
}

func (s *Server) deleteReservation(c *gin.Context) {
	if err := s.store.DeleteReservation(c.Param("pnr")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted successfully"})
}
