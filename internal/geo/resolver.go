// Package geo maps report coordinates to the municipality responsible for them.
package geo

import (
	"context"
	"fmt"

	"civic_reporter/internal/config"
)

// Resolver picks the first jurisdiction whose box contains a point.
type Resolver struct {
	jurisdictions []config.Jurisdiction
}

func NewResolver(jurisdictions []config.Jurisdiction) *Resolver {
	return &Resolver{jurisdictions: jurisdictions}
}

// Resolve returns the municipality for (lat, lon), or nil when the point is
// outside every jurisdiction.
func (r *Resolver) Resolve(lat, lon float64) *string {
	for _, j := range r.jurisdictions {
		if lat >= j.MinLat && lat <= j.MaxLat && lon >= j.MinLon && lon <= j.MaxLon {
			m := j.Municipality
			return &m
		}
	}
	return nil
}

// Geocoder supplies a human readable address for coordinates.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// CoordinateGeocoder formats the coordinates themselves as the address.
type CoordinateGeocoder struct {
	Region string
}

func (g CoordinateGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.Region == "" {
		return fmt.Sprintf("%.4f, %.4f", lat, lon), nil
	}
	return fmt.Sprintf("%.4f, %.4f - %s", lat, lon, g.Region), nil
}
