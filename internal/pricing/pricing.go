package pricing

import "time"

// Predictor estimates a fare for a prospective flight. The formula
// implementation below stands in for a model-backed predictor; swapping in a
// real model only requires another implementation of this interface.
type Predictor interface {
	Predict(fromCity, toCity string, durationMinutes int, flightDate time.Time) int64
}

type FormulaPredictor struct{}

func NewFormulaPredictor() *FormulaPredictor {
	return &FormulaPredictor{}
}

var popularRoutes = [][2]string{
	{"Istanbul", "Ankara"},
	{"Istanbul", "Izmir"},
	{"Ankara", "Istanbul"},
}

const basePriceCents = 500 * 100

// Predict returns the estimated price in cents.
func (p *FormulaPredictor) Predict(fromCity, toCity string, durationMinutes int, flightDate time.Time) int64 {
	durationHours := float64(durationMinutes) / 60

	distanceMultiplier := durationHours * 1.5

	seasonMultiplier := 1.0
	if m := flightDate.Month(); m >= time.June && m <= time.August {
		seasonMultiplier = 1.3
	}

	weekendMultiplier := 1.0
	if d := flightDate.Weekday(); d == time.Saturday || d == time.Sunday {
		weekendMultiplier = 1.2
	}

	routeMultiplier := 1.0
	for _, route := range popularRoutes {
		if (route[0] == fromCity && route[1] == toCity) || (route[0] == toCity && route[1] == fromCity) {
			routeMultiplier = 1.1
			break
		}
	}

	price := float64(basePriceCents) * distanceMultiplier * seasonMultiplier * weekendMultiplier * routeMultiplier
	return int64(price + 0.5)
}

var _ Predictor = (*FormulaPredictor)(nil)
