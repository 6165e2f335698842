package devserver

import "github.com/railbook/railbook/internal/booking"

func coord(v float64) *float64 { return &v }

// SeedStations are loaded by NewSeededStore.
var SeedStations = []booking.Station{
	{Code: "MUM", Name: "Mumbai Central", Latitude: coord(18.9690), Longitude: coord(72.8205), TotalPlatforms: 9, Facilities: "waiting room, food court"},
	{Code: "DEL", Name: "New Delhi", Latitude: coord(28.6430), Longitude: coord(77.2194), TotalPlatforms: 16, Facilities: "waiting room, food court, cloak room"},
	{Code: "BLR", Name: "Bangalore City", Latitude: coord(12.9784), Longitude: coord(77.5694), TotalPlatforms: 10},
	{Code: "CHN", Name: "Chennai Central", Latitude: coord(13.0827), Longitude: coord(80.2750), TotalPlatforms: 17},
	{Code: "KOL", Name: "Kolkata", Latitude: coord(22.6013), Longitude: coord(88.3844), TotalPlatforms: 13},
}

// SeedTrains are loaded by NewSeededStore.
var SeedTrains = []booking.Train{
	{ID: "12301", Name: "Rajdhani Express", Type: "express", TotalCapacity: 1200, Frequency: "daily", SpecialAttributes: "pantry car"},
	{ID: "12213", Name: "Duronto Express", Type: "express", TotalCapacity: 1100, Frequency: "bi-weekly"},
	{ID: "12627", Name: "Karnataka Express", Type: "express", TotalCapacity: 1300, Frequency: "daily"},
	{ID: "56501", Name: "Hampi Passenger", Type: "passenger", TotalCapacity: 900, Frequency: "daily"},
}
