package meddata

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pharmacy is one branch in the store locations file.
type Pharmacy struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Address  string            `json:"address"`
	City     string            `json:"city"`
	ZipCode  string            `json:"zip_code"`
	Phone    string            `json:"phone"`
	Hours    map[string]string `json:"hours"` // weekday name -> opening hours
	Services []string          `json:"services"`
}

// FormatHours renders the weekly hours in the fixed display order used in
// tool responses.
func (p *Pharmacy) FormatHours() string {
	get := func(day string) string {
		if v, ok := p.Hours[day]; ok && v != "" {
			return v
		}
		return "Closed"
	}
	return fmt.Sprintf("Sun: %s, Mon-Thu: %s, Fri: %s, Sat: %s",
		get("sunday"), get("monday"), get("friday"), get("saturday"))
}

// LoadPharmacies reads the pharmacy locations JSON file.
func LoadPharmacies(path string) ([]*Pharmacy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pharmacy locations file: %w", err)
	}
	var pharmacies []*Pharmacy
	if err := json.Unmarshal(data, &pharmacies); err != nil {
		return nil, fmt.Errorf("parse pharmacy locations file: %w", err)
	}
	return pharmacies, nil
}
