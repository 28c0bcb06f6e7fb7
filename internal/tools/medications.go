package tools

import (
	"context"
	"strings"

	"github.com/pharmassist/pharmassist/internal/i18n"
	"github.com/pharmassist/pharmassist/internal/meddata"
)

var langParam = Param{
	Name:        "lang",
	Type:        "string",
	Description: "Language code for localized fields.",
	Enum:        []string{"en", "he", "ru", "ar"},
	Infer:       InferLanguage,
}

// argString reads a string argument, returning fallback when absent.
func argString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// argBool reads a boolean argument, returning fallback when absent.
func argBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

// ambiguousResult asks the user to pick between close name matches. At most
// three options are offered.
func ambiguousResult(candidates []meddata.Candidate, lang string) *Result {
	names := make([]string, 0, 3)
	for _, c := range candidates {
		if c.Name == "" {
			continue
		}
		names = append(names, c.Name)
		if len(names) == 3 {
			break
		}
	}
	return &Result{
		Err:     "ambiguous_match",
		Message: i18n.Get("general", "ambiguous_match", lang, i18n.Args{"options": strings.Join(names, ", ")}),
		Payload: map[string]any{"candidates": names},
	}
}

// MedicationResolver implements resolve_medication_id: it maps a medication
// name, possibly misspelled, to its catalog id.
type MedicationResolver struct {
	source meddata.Source
}

func NewMedicationResolver(source meddata.Source) *MedicationResolver {
	return &MedicationResolver{source: source}
}

func (t *MedicationResolver) Schema() Schema {
	return Schema{
		Name:        "resolve_medication_id",
		Description: "Resolve a medication name to its internal catalog id. Handles minor misspellings.",
		Params: []Param{
			{Name: "name", Type: "string", Description: "Medication name to resolve.", Required: true},
			langParam,
		},
	}
}

func (t *MedicationResolver) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	name := argString(args, "name", "")
	lang := argString(args, "lang", "en")

	match, err := t.source.MedicationByName(ctx, name, lang)
	if err != nil {
		return nil, &HandlerError{Code: "resolve_failed", Message: i18n.Get("medication", "search_failed", lang, nil)}
	}
	if match == nil {
		return &Result{
			Message: i18n.Get("medication", "resolve_not_found", lang, i18n.Args{"name": name}),
		}, nil
	}
	if match.Ambiguous() {
		return ambiguousResult(match.Candidates, lang), nil
	}

	med := match.Medication
	return &Result{
		Success: true,
		Payload: map[string]any{
			"id":   med.ID,
			"name": med.Name(lang),
		},
	}, nil
}

// MedicationInfo implements get_medication_info: full label information for
// a medication looked up by id or name.
type MedicationInfo struct {
	source meddata.Source
}

func NewMedicationInfo(source meddata.Source) *MedicationInfo {
	return &MedicationInfo{source: source}
}

func (t *MedicationInfo) Schema() Schema {
	return Schema{
		Name:        "get_medication_info",
		Description: "Get full label information for a medication by name or catalog id.",
		Params: []Param{
			{Name: "query", Type: "string", Description: "Medication name or catalog id.", Required: true},
			langParam,
		},
	}
}

func (t *MedicationInfo) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	query := argString(args, "query", "")
	lang := argString(args, "lang", "en")

	med, err := t.source.MedicationByID(ctx, query)
	if err != nil {
		return nil, &HandlerError{Code: "info_retrieval_failed", Message: i18n.Get("medication", "info_failed", lang, nil)}
	}
	if med == nil {
		match, err := t.source.MedicationByName(ctx, query, lang)
		if err != nil {
			return nil, &HandlerError{Code: "info_retrieval_failed", Message: i18n.Get("medication", "info_failed", lang, nil)}
		}
		if match == nil {
			return &Result{
				Message: i18n.Get("medication", "info_not_found", lang, i18n.Args{"query": query}),
			}, nil
		}
		if match.Ambiguous() {
			return ambiguousResult(match.Candidates, lang), nil
		}
		med = match.Medication
	}

	return &Result{
		Success: true,
		Payload: map[string]any{
			"medication": map[string]any{
				"id":                    med.ID,
				"name":                  med.Name(lang),
				"active_ingredient":     med.Ingredient(lang),
				"dosage":                med.Dosage,
				"prescription_required": med.PrescriptionRequired,
				"usage_instructions":    med.Instructions(lang),
				"warnings":              med.WarningsText(lang),
				"category":              med.CategoryName(lang),
				"price_usd":             med.PriceUSD,
			},
		},
	}, nil
}

// IngredientSearch implements search_by_ingredient.
type IngredientSearch struct {
	source meddata.Source
}

func NewIngredientSearch(source meddata.Source) *IngredientSearch {
	return &IngredientSearch{source: source}
}

func (t *IngredientSearch) Schema() Schema {
	return Schema{
		Name:        "search_by_ingredient",
		Description: "Find medications containing a given active ingredient.",
		Params: []Param{
			{Name: "ingredient", Type: "string", Description: "Active ingredient to search for.", Required: true},
			langParam,
		},
	}
}

func (t *IngredientSearch) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	ingredient := argString(args, "ingredient", "")
	lang := argString(args, "lang", "en")

	results, err := t.source.SearchByIngredient(ctx, ingredient, lang)
	if err != nil {
		return nil, &HandlerError{Code: "search_failed", Message: i18n.Get("medication", "search_failed", lang, nil)}
	}

	if len(results) == 0 {
		return &Result{
			Success: true,
			Payload: map[string]any{"matches": 0, "medications": []any{}},
			Message: i18n.Get("medication", "no_results", lang, i18n.Args{"ingredient": ingredient}),
		}, nil
	}

	medications := make([]any, 0, len(results))
	for _, med := range results {
		medications = append(medications, map[string]any{
			"id":                    med.ID,
			"name":                  med.Name(lang),
			"active_ingredient":     med.Ingredient(lang),
			"dosage":                med.Dosage,
			"prescription_required": med.PrescriptionRequired,
			"price_usd":             med.PriceUSD,
			"category":              med.CategoryName(lang),
		})
	}

	return &Result{
		Success: true,
		Payload: map[string]any{
			"matches":     len(medications),
			"medications": medications,
		},
	}, nil
}
