package tools

import (
	"context"

	"github.com/pharmassist/pharmassist/internal/i18n"
	"github.com/pharmassist/pharmassist/internal/meddata"
)

// HandlingAdvisor implements get_handling_warnings. Everything it returns is
// factual label data plus fixed storage guidance, never medical advice.
type HandlingAdvisor struct {
	source meddata.Source
}

func NewHandlingAdvisor(source meddata.Source) *HandlingAdvisor {
	return &HandlingAdvisor{source: source}
}

func (t *HandlingAdvisor) Schema() Schema {
	return Schema{
		Name:        "get_handling_warnings",
		Description: "Get safe handling instructions and label warnings for a medication by catalog id.",
		Params: []Param{
			{Name: "med_id", Type: "string", Description: "Medication catalog id.", Required: true},
			langParam,
		},
	}
}

func (t *HandlingAdvisor) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	medID := argString(args, "med_id", "")
	lang := argString(args, "lang", "en")

	med, err := t.source.MedicationByID(ctx, medID)
	if err != nil {
		return nil, &HandlerError{Code: "retrieval_failed", Message: i18n.Get("handling", "retrieval_failed", lang, nil)}
	}
	if med == nil {
		return &Result{
			Err:     "not_found",
			Message: i18n.Get("handling", "not_found", lang, i18n.Args{"med_id": medID}),
		}, nil
	}

	instructions := []any{
		i18n.Get("handling", "storage", lang, nil),
		i18n.Get("handling", "child_safety", lang, nil),
	}
	if med.PrescriptionRequired {
		instructions = append(instructions, i18n.Get("handling", "prescription", lang, nil))
	}

	return &Result{
		Success: true,
		Payload: map[string]any{
			"med_id":                medID,
			"medication_name":       med.Name(lang),
			"handling_instructions": instructions,
			"label_warnings":        med.WarningsText(lang),
		},
		Message: i18n.Get("handling", "message", lang, nil),
	}, nil
}
