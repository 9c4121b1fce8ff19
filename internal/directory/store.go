package directory

import (
	"context"
	"errors"

	"tero/internal/models"
)

var (
	// ErrHospitalNotFound is returned when no hospital has the requested id.
	ErrHospitalNotFound = errors.New("hospital not found")

	// ErrNoBedsAvailable is returned by ReserveBed when the hospital is full.
	ErrNoBedsAvailable = errors.New("no beds available")

	// ErrInvalidCapacity is returned for negative bed counts or wait times.
	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrInvalidHospital is returned for records that cannot be stored.
	ErrInvalidHospital = errors.New("invalid hospital record")
)

// Store persists hospitals and their live capacity.
type Store interface {
	// List returns hospitals in a city (case-insensitive); an empty city lists all.
	List(ctx context.Context, city string) ([]models.Hospital, error)

	// Get returns one hospital.
	Get(ctx context.Context, id string) (models.Hospital, error)

	// Upsert inserts a hospital or replaces the stored record.
	Upsert(ctx context.Context, h models.Hospital) error

	// UpdateCapacity sets the free bed count and current wait time.
	UpdateCapacity(ctx context.Context, id string, availableBeds int, waitTime float64) (models.Hospital, error)

	// ReserveBed takes one free bed.
	ReserveBed(ctx context.Context, id string) (models.Hospital, error)

	// Cities lists the distinct cities in the directory.
	Cities(ctx context.Context) ([]string, error)
}
