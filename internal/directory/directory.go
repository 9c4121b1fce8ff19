package directory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tero/internal/geo"
	"tero/internal/models"
)

// Query selects candidate hospitals for a patient.
type Query struct {
	// Origin is the patient location. Without it, stored distances are kept
	// and no distance filter is applied.
	Origin *models.Location
	// City restricts the search; empty searches every city.
	City string
	// MaxDistanceKm drops hospitals further away than this. Zero disables the
	// filter.
	MaxDistanceKm float64
}

// Directory turns stored hospitals into match candidates relative to a
// patient.
type Directory struct {
	store    Store
	speedKmh float64
	log      zerolog.Logger
}

// New creates a directory over a store. A non-positive speed uses
// geo.DefaultSpeedKmh for ETAs.
func New(store Store, speedKmh float64, log zerolog.Logger) *Directory {
	if speedKmh <= 0 {
		speedKmh = geo.DefaultSpeedKmh
	}
	return &Directory{
		store:    store,
		speedKmh: speedKmh,
		log:      log.With().Str("component", "directory").Logger(),
	}
}

// Store returns the underlying store.
func (d *Directory) Store() Store {
	return d.store
}

// Candidates lists hospitals for the query with Distance and ETA filled in.
// Results keep the store's order.
func (d *Directory) Candidates(ctx context.Context, q Query) ([]models.Hospital, error) {
	hospitals, err := d.store.List(ctx, q.City)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	if q.Origin == nil {
		return hospitals, nil
	}

	candidates := make([]models.Hospital, 0, len(hospitals))
	for _, h := range hospitals {
		h.Distance = geo.Haversine(*q.Origin, h.Location)
		h.ETA = geo.ETA(h.Distance, d.speedKmh)
		if q.MaxDistanceKm > 0 && h.Distance > q.MaxDistanceKm {
			continue
		}
		candidates = append(candidates, h)
	}

	d.log.Debug().
		Str("city", q.City).
		Int("listed", len(hospitals)).
		Int("in_range", len(candidates)).
		Msg("built match candidates")

	return candidates, nil
}
