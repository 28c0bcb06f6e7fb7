// Package meddata provides the medication catalog and pharmacy directory
// backing the lookup tools. Two interchangeable sources exist: a static JSON
// file and a sqlite database seeded from the same file.
package meddata

import "context"

// Medication is one catalog entry with per-language label fields.
type Medication struct {
	ID                   string            `json:"id"`
	Dosage               string            `json:"dosage"`
	PrescriptionRequired bool              `json:"prescription_required"`
	PriceUSD             float64           `json:"price_usd"`
	Names                map[string]string `json:"names"`
	ActiveIngredient     map[string]string `json:"active_ingredient"`
	UsageInstructions    map[string]string `json:"usage_instructions"`
	Warnings             map[string]string `json:"warnings"`
	Category             map[string]string `json:"category"`
}

// localized returns the field value for lang, falling back to English and
// then to fallback when the translation is missing.
func localized(m map[string]string, lang, fallback string) string {
	if v, ok := m[lang]; ok && v != "" {
		return v
	}
	if v, ok := m["en"]; ok && v != "" {
		return v
	}
	return fallback
}

func (m *Medication) Name(lang string) string {
	return localized(m.Names, lang, "Unknown")
}

func (m *Medication) Ingredient(lang string) string {
	return localized(m.ActiveIngredient, lang, "Unknown")
}

func (m *Medication) Instructions(lang string) string {
	return localized(m.UsageInstructions, lang, "Consult a pharmacist")
}

func (m *Medication) WarningsText(lang string) string {
	return localized(m.Warnings, lang, "Consult a pharmacist")
}

func (m *Medication) CategoryName(lang string) string {
	return localized(m.Category, lang, "General")
}

// Candidate is one fuzzy-match candidate for an ambiguous name lookup.
type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Distance int    `json:"distance"`
}

// NameMatch is the result of a name lookup. Exactly one of Medication or
// Candidates is populated: a unique match, or the ambiguous candidate set.
type NameMatch struct {
	Medication *Medication
	Candidates []Candidate
}

func (m *NameMatch) Ambiguous() bool {
	return m != nil && len(m.Candidates) > 0
}

// Source is a medication catalog backend.
type Source interface {
	MedicationByID(ctx context.Context, id string) (*Medication, error)
	// MedicationByName matches case-insensitively in the given language,
	// then falls back to fuzzy matching. Returns nil when nothing is close.
	MedicationByName(ctx context.Context, name, lang string) (*NameMatch, error)
	// SearchByIngredient matches the active ingredient exactly,
	// case-insensitively, in the given language.
	SearchByIngredient(ctx context.Context, ingredient, lang string) ([]*Medication, error)
}

// maxNameDistance is the edit-distance cutoff for fuzzy name matches.
const maxNameDistance = 2

// matchByName implements the shared lookup semantics over a loaded catalog:
// exact case-insensitive match first, then a fuzzy pass. Every medication
// within the cutoff counts as a candidate; a single candidate resolves, more
// than one reports ambiguity.
func matchByName(meds []*Medication, name, lang string) *NameMatch {
	target := foldCase(name)
	for _, med := range meds {
		if foldCase(med.Names[lang]) == target {
			return &NameMatch{Medication: med}
		}
	}

	normalized := Normalize(name)
	if normalized == "" {
		return nil
	}

	var candidates []Candidate
	for _, med := range meds {
		medName := med.Names[lang]
		if medName == "" {
			continue
		}
		d := Levenshtein(normalized, Normalize(medName), maxNameDistance)
		if d <= maxNameDistance {
			candidates = append(candidates, Candidate{ID: med.ID, Name: medName, Distance: d})
		}
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		for _, med := range meds {
			if med.ID == candidates[0].ID {
				return &NameMatch{Medication: med}
			}
		}
		return nil
	default:
		return &NameMatch{Candidates: candidates}
	}
}

func searchByIngredient(meds []*Medication, ingredient, lang string) []*Medication {
	target := foldCase(ingredient)
	var results []*Medication
	for _, med := range meds {
		if foldCase(med.ActiveIngredient[lang]) == target {
			results = append(results, med)
		}
	}
	return results
}
