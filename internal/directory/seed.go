package directory

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tero/internal/models"
)

//go:embed seed/hospitals.yaml
var seedYAML []byte

type hospitalFile struct {
	Hospitals []models.Hospital `yaml:"hospitals"`
}

// LoadSeed returns the bundled hospital list.
func LoadSeed() ([]models.Hospital, error) {
	return ParseHospitals(seedYAML)
}

// LoadHospitalsFile reads hospitals from a YAML or JSON file. The document may
// be either a list or an object with a "hospitals" key.
func LoadHospitalsFile(path string) ([]models.Hospital, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hospitals file: %w", err)
	}
	hospitals, err := ParseHospitals(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hospitals, nil
}

// ParseHospitals decodes and validates a hospital document.
func ParseHospitals(data []byte) ([]models.Hospital, error) {
	var hospitals []models.Hospital

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse hospitals: %w", err)
	}
	if len(doc.Content) == 0 {
		return []models.Hospital{}, nil
	}
	if doc.Content[0].Kind == yaml.SequenceNode {
		if err := doc.Content[0].Decode(&hospitals); err != nil {
			return nil, fmt.Errorf("parse hospitals: %w", err)
		}
	} else {
		var file hospitalFile
		if err := doc.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse hospitals: %w", err)
		}
		hospitals = file.Hospitals
	}

	seen := make(map[string]bool, len(hospitals))
	for i := range hospitals {
		h := &hospitals[i]
		h.ID = strings.TrimSpace(h.ID)
		if h.ID == "" {
			h.ID = fmt.Sprintf("hospital-%d", i+1)
		}
		if seen[h.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidHospital, h.ID)
		}
		seen[h.ID] = true
		if strings.TrimSpace(h.Name) == "" {
			return nil, fmt.Errorf("%w: hospital %q has no name", ErrInvalidHospital, h.ID)
		}
		if h.Specialties == nil {
			h.Specialties = []string{}
		}
	}
	return hospitals, nil
}
