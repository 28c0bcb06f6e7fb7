package tools

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/pharmassist/pharmassist/internal/i18n"
	"github.com/pharmassist/pharmassist/internal/meddata"
)

// cityToken extracts word tokens across the scripts the directory carries.
var cityToken = regexp.MustCompile(`[A-Za-z\x{0590}-\x{05FF}\x{0400}-\x{04FF}\x{0600}-\x{06FF}]+`)

const maxCityDistance = 2

// PharmacyLocator implements find_nearest_pharmacy over the static branch
// directory. City matching tolerates minor misspellings.
type PharmacyLocator struct {
	locations []*meddata.Pharmacy
}

func NewPharmacyLocator(locations []*meddata.Pharmacy) *PharmacyLocator {
	return &PharmacyLocator{locations: locations}
}

func (t *PharmacyLocator) Schema() Schema {
	return Schema{
		Name:        "find_nearest_pharmacy",
		Description: "Find pharmacy branches near a zip code or city, with addresses and opening hours.",
		Params: []Param{
			{Name: "zip_code", Type: "string", Description: "Zip code to search near."},
			{Name: "city", Type: "string", Description: "City to search in."},
			langParam,
		},
	}
}

func (t *PharmacyLocator) Execute(_ context.Context, args map[string]any) (*Result, error) {
	zipCode := argString(args, "zip_code", "")
	city := argString(args, "city", "")
	lang := argString(args, "lang", "en")

	if zipCode == "" && city == "" {
		return &Result{
			Err:     "missing_location",
			Message: i18n.Get("pharmacy", "missing_location", lang, nil),
		}, nil
	}

	searched := zipCode
	if searched == "" {
		searched = city
	}

	var filtered []*meddata.Pharmacy
	switch {
	case zipCode != "":
		for _, p := range t.locations {
			if strings.Contains(p.ZipCode, zipCode) {
				filtered = append(filtered, p)
			}
		}
	default:
		cityLower := strings.ToLower(city)
		for _, p := range t.locations {
			if strings.Contains(strings.ToLower(p.City), cityLower) {
				filtered = append(filtered, p)
			}
		}
	}

	if len(filtered) == 0 && city != "" {
		if matched, ok := t.fuzzyCity(city); ok {
			for _, p := range t.locations {
				if strings.EqualFold(p.City, matched) {
					filtered = append(filtered, p)
				}
			}
			searched = matched
		}
	}

	if len(filtered) == 0 {
		cities := t.cityNames()
		return &Result{
			Success: true,
			Payload: map[string]any{
				"location_not_found": true,
				"searched_location":  searched,
				"count":              0,
				"pharmacies":         []any{},
			},
			Message: i18n.Get("pharmacy", "not_found", lang, i18n.Args{
				"searched_location": searched,
				"available":         strings.Join(cities, ", "),
			}),
		}, nil
	}

	formatted := make([]any, 0, 5)
	for _, p := range filtered {
		formatted = append(formatted, map[string]any{
			"id":       p.ID,
			"name":     p.Name,
			"address":  p.Address,
			"city":     p.City,
			"zip_code": p.ZipCode,
			"phone":    p.Phone,
			"hours":    p.FormatHours(),
			"services": p.Services,
		})
		if len(formatted) == 5 {
			break
		}
	}

	return &Result{
		Success: true,
		Payload: map[string]any{
			"location_not_found": false,
			"searched_location":  searched,
			"count":              len(filtered),
			"pharmacies":         formatted,
		},
		Message: i18n.Get("pharmacy", "found", lang, i18n.Args{
			"count":   len(filtered),
			"name":    filtered[0].Name,
			"address": filtered[0].Address,
		}),
	}, nil
}

// fuzzyCity matches a misspelled city name against the directory. The whole
// input and each word token are compared; a unique best city wins, ties stay
// unresolved.
func (t *PharmacyLocator) fuzzyCity(city string) (string, bool) {
	cityNorm := meddata.Normalize(city)
	var tokens []string
	for _, tok := range cityToken.FindAllString(city, -1) {
		if n := meddata.Normalize(tok); n != "" {
			tokens = append(tokens, n)
		}
	}

	bestDistance := -1
	var best []string
	for _, candidate := range t.cityNames() {
		candidateNorm := meddata.Normalize(candidate)
		if candidateNorm == "" {
			continue
		}
		minDist := -1
		if cityNorm != "" {
			minDist = meddata.Levenshtein(cityNorm, candidateNorm, maxCityDistance)
		}
		for _, tok := range tokens {
			if d := meddata.Levenshtein(tok, candidateNorm, maxCityDistance); minDist < 0 || d < minDist {
				minDist = d
			}
		}
		if minDist < 0 || minDist > maxCityDistance {
			continue
		}
		switch {
		case bestDistance < 0 || minDist < bestDistance:
			bestDistance = minDist
			best = []string{candidate}
		case minDist == bestDistance:
			best = append(best, candidate)
		}
	}

	if len(best) == 1 {
		return best[0], true
	}
	return "", false
}

func (t *PharmacyLocator) cityNames() []string {
	seen := make(map[string]bool)
	var cities []string
	for _, p := range t.locations {
		if p.City == "" || seen[p.City] {
			continue
		}
		seen[p.City] = true
		cities = append(cities, p.City)
	}
	sort.Strings(cities)
	return cities
}
