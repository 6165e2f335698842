package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/config"
	"github.com/railbook/railbook/internal/devserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBookingFile = `train: rajdhani
date: "2099-06-01"
from: Mumbai Central
to: DEL
passengers:
  - first_name: Asha
    last_name: Rao
    phone: "9876543210"
    gender: female
    fare: "1450"
  - first_name: Ravi
    last_name: Rao
    phone: "9876500000"
    fare: "1450"
`

func TestBookFromFile(t *testing.T) {
	dir := isolate(t)
	url, store := startService(t)
	writeFile(t, "booking.yaml", testBookingFile)
	writeFile(t, ".railbook.hooks.yml", `version: 1
hooks:
  post_submit:
    - command: "echo hook saw {{pnr}} on {{train}}"
      pipe_output: true
`)

	out, err := execute(t, "book", "--file", "booking.yaml", "--base-url", url,
		"--no-journal", "--yes", "--ticket")
	require.NoError(t, err, out)

	reservations := store.Reservations()
	require.Len(t, reservations, 1)
	r := reservations[0]
	assert.Equal(t, "12301", r.TrainID)
	assert.Equal(t, "MUM", r.SourceStation)
	assert.Equal(t, "DEL", r.DestinationStation)
	assert.Equal(t, 2900.0, r.TotalFare)
	require.Len(t, r.Passengers, 2)
	assert.Equal(t, "Female", r.Passengers[0].Gender)

	assert.Contains(t, out, "Booked")
	assert.Contains(t, out, r.PNR)
	assert.Contains(t, out, "hook saw "+r.PNR+" on Rajdhani Express")

	tickets, err := filepath.Glob(filepath.Join(dir, "tickets", "ticket-*.md"))
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestBookFromFile_Invalid(t *testing.T) {
	isolate(t)
	url, store := startService(t)
	writeFile(t, "booking.yaml", `train: 12301
date: "2099-06-01"
from: MUM
to: DEL
passengers:
  - first_name: Asha
    fare: "100"
`)

	_, err := execute(t, "book", "--file", "booking.yaml", "--base-url", url, "--no-journal", "--yes")
	require.Error(t, err)

	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, booking.StepPassengers, verr.Step)
	assert.NotEmpty(t, verr.For(0, string(booking.FieldPhone)))
	assert.Empty(t, store.Reservations())
}

func TestBookFromFile_Journal(t *testing.T) {
	isolate(t)
	url, _ := startService(t)
	writeFile(t, "booking.yaml", testBookingFile)

	_, err := execute(t, "book", "--file", "booking.yaml", "--base-url", url, "--yes")
	require.NoError(t, err)

	out, err := execute(t, "history", "--base-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "booked")
	assert.Contains(t, out, "MUM → DEL, 2 passenger(s)")

	out, err = execute(t, "history", "--action", "submit_failed")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing recorded yet.")
}

func TestReadBookingFile(t *testing.T) {
	isolate(t)

	_, err := readBookingFile("missing.yaml")
	assert.Error(t, err)

	writeFile(t, "empty.yaml", "train: 12301\n")
	_, err = readBookingFile("empty.yaml")
	assert.ErrorContains(t, err, "lists no passengers")

	writeFile(t, "bad.yaml", "passengers: [\n")
	_, err = readBookingFile("bad.yaml")
	assert.ErrorContains(t, err, "failed to parse")
}

func TestBookingFileApply(t *testing.T) {
	ref := booking.ReferenceData{
		Stations: []booking.Station{{Code: "MUM", Name: "Mumbai Central"}, {Code: "DEL", Name: "New Delhi"}},
		Trains:   []booking.Train{{ID: "12301", Name: "Rajdhani Express"}},
	}

	f := &bookingFile{
		Train: "Rajdhani Expres",
		Date:  "2099-06-01",
		From:  "mum",
		To:    "New Deli",
		Passengers: []passengerFile{
			{FirstName: "Asha", LastName: "Rao", Phone: "1", Fare: "10"},
		},
	}
	wiz := booking.NewWizard(ref)
	require.NoError(t, f.apply(wiz))
	assert.Equal(t, booking.StepReview, wiz.Step())

	d := wiz.Draft()
	assert.Equal(t, "12301", d.TrainID)
	assert.Equal(t, "MUM", d.SourceStation)
	assert.Equal(t, "DEL", d.DestinationStation)
	assert.Equal(t, 10.0, d.TotalFare())

	f.Date = "01/06/2099"
	err := f.apply(booking.NewWizard(ref))
	assert.ErrorContains(t, err, "date must look like")

	f.Date = ""
	err = f.apply(booking.NewWizard(ref))
	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, booking.StepJourney, verr.Step)
}

func TestStationsAndTrains(t *testing.T) {
	isolate(t)
	url, store := startService(t)

	out, err := execute(t, "stations", "list", "--base-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Mumbai Central")

	_, err = execute(t, "stations", "add", "--base-url", url, "--code", "pne", "--name", "Pune Junction", "--platforms", "6")
	require.NoError(t, err)
	assert.Len(t, store.Stations(), len(devserver.SeedStations)+1)

	_, err = execute(t, "trains", "add", "--base-url", url, "--id", "11007", "--name", "Deccan Express", "--capacity", "800")
	require.NoError(t, err)

	out, err = execute(t, "trains", "list", "--base-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Deccan Express")

	_, err = execute(t, "trains", "add", "--base-url", url, "--id", "1", "--name", "X", "--capacity", "1", "--type", "freight")
	assert.ErrorContains(t, err, "--type must be one of")
}

func TestStationsAndTrainsEditDelete(t *testing.T) {
	isolate(t)
	url, store := startService(t)
	lookup := func() booking.ReferenceData {
		return booking.ReferenceData{Stations: store.Stations(), Trains: store.Trains()}
	}

	out, err := execute(t, "stations", "edit", "mum", "--base-url", url, "--name", "Mumbai CSMT", "--lat", "18.94")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated")
	st, ok := lookup().Station("MUM")
	require.True(t, ok)
	assert.Equal(t, "Mumbai CSMT", st.Name)
	require.NotNil(t, st.Latitude)
	assert.InDelta(t, 18.94, *st.Latitude, 1e-9)
	seed, _ := booking.ReferenceData{Stations: devserver.SeedStations}.Station("MUM")
	assert.Equal(t, seed.TotalPlatforms, st.TotalPlatforms, "untouched flags keep their values")

	_, err = execute(t, "stations", "edit", "XYZ", "--base-url", url, "--name", "Nowhere")
	assert.ErrorContains(t, err, "station XYZ not found")

	_, err = execute(t, "stations", "delete", "mum", "--base-url", url)
	require.NoError(t, err)
	_, ok = lookup().Station("MUM")
	assert.False(t, ok)

	_, err = execute(t, "stations", "delete", "MUM", "--base-url", url)
	var netErr *booking.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, 404, netErr.StatusCode)

	_, err = execute(t, "trains", "edit", "12301", "--base-url", url, "--capacity", "1500", "--frequency", "Weekly")
	require.NoError(t, err)
	tr, ok := lookup().Train("12301")
	require.True(t, ok)
	assert.Equal(t, 1500, tr.TotalCapacity)
	assert.Equal(t, "weekly", tr.Frequency)
	assert.Equal(t, "Rajdhani Express", tr.Name)

	_, err = execute(t, "trains", "edit", "12301", "--base-url", url, "--type", "freight")
	assert.ErrorContains(t, err, "--type must be one of")
	tr, _ = lookup().Train("12301")
	assert.Equal(t, "express", tr.Type)

	_, err = execute(t, "trains", "delete", "12301", "--base-url", url)
	require.NoError(t, err)
	assert.Len(t, store.Trains(), len(devserver.SeedTrains)-1)
}

func TestReservationsCommands(t *testing.T) {
	isolate(t)
	url, store := startService(t)
	res, _ := store.CreateReservation(booking.Reservation{
		TrainID: "12301", JourneyDate: "2099-06-01", SourceStation: "MUM", DestinationStation: "DEL",
		TotalFare:  500,
		Passengers: []booking.PassengerRequest{{FirstName: "Asha", LastName: "Rao", Phone: "1", Fare: 500}},
	}, "key-1")

	out, err := execute(t, "reservations", "list", "--base-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, res.PNR)

	out, err = execute(t, "reservations", "show", strings.ToLower(res.PNR), "--base-url", url, "--ticket")
	require.NoError(t, err)
	assert.Contains(t, out, "Ticket written to:")
	_, err = os.Stat(filepath.Join("tickets", "ticket-"+strings.ToLower(res.PNR)+"-rajdhani-express.md"))
	assert.NoError(t, err)

	_, err = execute(t, "reservations", "delete", res.PNR, "--base-url", url, "--no-journal")
	require.NoError(t, err)
	assert.Empty(t, store.Reservations())

	_, err = execute(t, "reservations", "show", res.PNR, "--base-url", url)
	var netErr *booking.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, 404, netErr.StatusCode)
}

func TestSetup(t *testing.T) {
	isolate(t)

	out, err := execute(t, "setup", "--project", "--url", "https://rail.example/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Config written to: "+config.ProjectPath())

	data, err := os.ReadFile(config.ProjectPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "base_url: https://rail.example/api")

	_, err = execute(t, "setup", "--project")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "setup", "--project", "--force")
	assert.NoError(t, err)
}

func TestParseAction(t *testing.T) {
	for _, s := range []string{"", "reservation_created", "SUBMIT_FAILED", "draft_cancelled", "reservation_deleted"} {
		_, err := parseAction(s)
		assert.NoError(t, err, s)
	}
	_, err := parseAction("booked")
	assert.Error(t, err)
}

func TestCheckTrain(t *testing.T) {
	valid := booking.Train{ID: "1", Name: "X", Type: "express", Frequency: "daily", TotalCapacity: 10}
	assert.NoError(t, checkTrain(valid))

	bad := valid
	bad.Frequency = "hourly"
	assert.ErrorContains(t, checkTrain(bad), "--frequency")

	bad = valid
	bad.TotalCapacity = 0
	assert.ErrorContains(t, checkTrain(bad), "--capacity")
}

func TestDraftTouched(t *testing.T) {
	d := booking.NewDraft()
	assert.False(t, draftTouched(d))

	d.Passengers[0].Phone = "1"
	assert.True(t, draftTouched(d))

	d = booking.NewDraft()
	d.SourceStation = "MUM"
	assert.True(t, draftTouched(d))
}
