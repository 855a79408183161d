package main

import (
	"math"
	"math/rand/v2"
	"time"
)

type airportDef struct {
	name, country, city string
	longitude, latitude float64
	description         string
	id                  int64 // populated after insert
}

type airplaneDef struct {
	model          string
	productionDate time.Time
	seats          int
	maxDistance    float64 // km
	airportIdx     int
	id             int64 // populated after insert
}

type flightDef struct {
	airplaneID, startAirportID, destinationAirportID int64
	startDate, arrivalDate                             time.Time
	price                                              float64
	seats                                              int
	description                                        string
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func defaultAirports() []airportDef {
	return []airportDef{
		{name: "Istanbul Airport", country: "Turkey", city: "Istanbul", longitude: 28.751944, latitude: 41.275278, description: "Main hub"},
		{name: "Ankara Esenboga Airport", country: "Turkey", city: "Ankara", longitude: 32.995083, latitude: 40.128082},
		{name: "Heathrow Airport", country: "United Kingdom", city: "London", longitude: -0.454295, latitude: 51.470020},
		{name: "Charles de Gaulle Airport", country: "France", city: "Paris", longitude: 2.547778, latitude: 49.009722},
		{name: "Frankfurt Airport", country: "Germany", city: "Frankfurt", longitude: 8.570556, latitude: 50.033333},
		{name: "John F. Kennedy International Airport", country: "United States", city: "New York", longitude: -73.778889, latitude: 40.639722},
		{name: "Dubai International Airport", country: "United Arab Emirates", city: "Dubai", longitude: 55.364444, latitude: 25.252778},
		{name: "Haneda Airport", country: "Japan", city: "Tokyo", longitude: 139.781111, latitude: 35.553333},
	}
}

func defaultAirplanes() []airplaneDef {
	return []airplaneDef{
		{model: "Airbus A320neo", productionDate: date(2019, time.March, 14), seats: 180, maxDistance: 6300, airportIdx: 0},
		{model: "Airbus A321neo", productionDate: date(2021, time.June, 2), seats: 220, maxDistance: 7400, airportIdx: 1},
		{model: "Boeing 737 MAX 8", productionDate: date(2020, time.November, 20), seats: 178, maxDistance: 6570, airportIdx: 2},
		{model: "Boeing 787-9", productionDate: date(2018, time.August, 9), seats: 290, maxDistance: 14140, airportIdx: 0},
		{model: "Airbus A350-900", productionDate: date(2022, time.January, 17), seats: 325, maxDistance: 15000, airportIdx: 4},
		{model: "Boeing 777-300ER", productionDate: date(2016, time.May, 30), seats: 396, maxDistance: 13650, airportIdx: 6},
	}
}

// distanceKm is the great-circle distance between two airports.
func distanceKm(a, b airportDef) float64 {
	const earthRadius = 6371.0
	lat1, lat2 := a.latitude*math.Pi/180, b.latitude*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.longitude - a.longitude) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(h))
}

// planFlights picks n flights over the next 60 days. Each flight departs from
// the airplane's home airport to a destination within the airplane's range.
// Airplanes with no reachable destination are skipped.
func planFlights(rng *rand.Rand, airports []airportDef, airplanes []airplaneDef, n int, now time.Time) []flightDef {
	if len(airplanes) == 0 || len(airports) < 2 {
		return nil
	}

	flights := make([]flightDef, 0, n)
	for attempt := 0; len(flights) < n && attempt < n*10; attempt++ {
		plane := airplanes[rng.IntN(len(airplanes))]
		from := airports[plane.airportIdx]

		var reachable []airportDef
		for i, to := range airports {
			if i != plane.airportIdx && distanceKm(from, to) <= plane.maxDistance {
				reachable = append(reachable, to)
			}
		}
		if len(reachable) == 0 {
			continue
		}
		to := reachable[rng.IntN(len(reachable))]

		km := distanceKm(from, to)
		// cruise at roughly 800 km/h plus 30 minutes on the ground
		duration := time.Duration(km/800*float64(time.Hour)) + 30*time.Minute
		start := now.Truncate(time.Hour).Add(time.Duration(1+rng.IntN(60*24)) * time.Hour)

		flights = append(flights, flightDef{
			airplaneID:           plane.id,
			startAirportID:       from.id,
			destinationAirportID: to.id,
			startDate:            start,
			arrivalDate:          start.Add(duration).Truncate(time.Minute),
			price:                math.Round((49+km*0.11)*100) / 100,
			seats:                plane.seats,
			description:          from.city + " to " + to.city,
		})
	}
	return flights
}
