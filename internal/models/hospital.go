package models

import "time"

// Location represents geolocation information
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Address   string  `json:"address,omitempty" yaml:"address,omitempty"`
}

// Hospital is a candidate facility as seen by the matcher. Distance and ETA
// are relative to the patient and are filled in by the directory.
type Hospital struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	City          string    `json:"city,omitempty" yaml:"city"`
	Address       string    `json:"address,omitempty" yaml:"address,omitempty"`
	Phone         string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location      Location  `json:"location" yaml:"location"`
	Specialties   []string  `json:"specialties" yaml:"specialties"`
	AvailableBeds int       `json:"available_beds" yaml:"available_beds"`
	TotalBeds     int       `json:"total_beds,omitempty" yaml:"total_beds,omitempty"`
	WaitTime      float64   `json:"wait_time" yaml:"wait_time"`
	Distance      float64   `json:"distance" yaml:"distance,omitempty"`
	ETA           float64   `json:"eta,omitempty" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at,omitempty" yaml:"-"`
}
