package domain

import (
	"context"
	"strings"
)

// Place is a human-readable location resolved from coordinates.
type Place struct {
	City   string
	County string
	State  string
}

// DisplayName joins the non-empty components, e.g.
// "Nashville, Davidson County, Tennessee". Empty when nothing resolved.
func (p Place) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.City, p.County, p.State} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Geocoder resolves coordinates to place details.
type Geocoder interface {
	// ReverseGeocode converts a WGS-84 coordinate pair to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}
