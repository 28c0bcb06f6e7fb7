package meddata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource serves the catalog from a medications JSON file loaded once at
// startup. The data is read-only afterwards, so lookups need no locking.
type FileSource struct {
	medications []*Medication
}

// NewFileSource loads and parses the medications file.
func NewFileSource(path string) (*FileSource, error) {
	meds, err := LoadMedications(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{medications: meds}, nil
}

// LoadMedications reads the catalog JSON file.
func LoadMedications(path string) ([]*Medication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read medications file: %w", err)
	}
	var meds []*Medication
	if err := json.Unmarshal(data, &meds); err != nil {
		return nil, fmt.Errorf("parse medications file: %w", err)
	}
	return meds, nil
}

func (s *FileSource) MedicationByID(_ context.Context, id string) (*Medication, error) {
	if id == "" {
		return nil, nil
	}
	for _, med := range s.medications {
		if med.ID == id {
			return med, nil
		}
	}
	return nil, nil
}

func (s *FileSource) MedicationByName(_ context.Context, name, lang string) (*NameMatch, error) {
	return matchByName(s.medications, name, lang), nil
}

func (s *FileSource) SearchByIngredient(_ context.Context, ingredient, lang string) ([]*Medication, error) {
	return searchByIngredient(s.medications, ingredient, lang), nil
}

// All returns every catalog entry. Used for seeding and knowledge summaries.
func (s *FileSource) All() []*Medication {
	return s.medications
}
