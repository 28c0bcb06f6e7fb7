package tools

import (
	"context"

	"github.com/pharmassist/pharmassist/internal/i18n"
	"github.com/pharmassist/pharmassist/internal/meddata"
	"github.com/pharmassist/pharmassist/internal/store"
)

// PrescriptionLister implements get_user_prescriptions. The user id comes
// from the authenticated request, never from model-supplied text.
type PrescriptionLister struct {
	store  *store.Store
	source meddata.Source
}

func NewPrescriptionLister(st *store.Store, source meddata.Source) *PrescriptionLister {
	return &PrescriptionLister{store: st, source: source}
}

func (t *PrescriptionLister) Schema() Schema {
	return Schema{
		Name:        "get_user_prescriptions",
		Description: "List the authenticated user's prescriptions.",
		Params: []Param{
			{Name: "user_id", Type: "string", Description: "User identifier.", Required: true, Infer: InferUserID},
			{Name: "active_only", Type: "boolean", Description: "Only prescriptions that are pending or ready."},
			langParam,
		},
	}
}

func (t *PrescriptionLister) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	userID := argString(args, "user_id", "")
	activeOnly := argBool(args, "active_only", true)
	lang := argString(args, "lang", "en")

	prescriptions, err := t.store.Prescriptions(ctx, userID, activeOnly)
	if err != nil {
		return nil, &HandlerError{Code: "retrieval_failed", Message: i18n.Get("prescription", "failed", lang, nil)}
	}

	if len(prescriptions) == 0 {
		messageKey := "none_all"
		if activeOnly {
			messageKey = "none_active"
		}
		return &Result{
			Success: true,
			Payload: map[string]any{
				"count":         0,
				"active_only":   activeOnly,
				"prescriptions": []any{},
			},
			Message: i18n.Get("prescription", messageKey, lang, nil),
		}, nil
	}

	enriched := make([]any, 0, len(prescriptions))
	for _, p := range prescriptions {
		var medName any
		if p.MedID != "" {
			if med, err := t.source.MedicationByID(ctx, p.MedID); err == nil && med != nil {
				medName = med.Name(lang)
			}
		}
		enriched = append(enriched, map[string]any{
			"id":            p.ID,
			"med_id":        p.MedID,
			"med_name":      medName,
			"dosage":        p.Dosage,
			"quantity":      p.Quantity,
			"refills_left":  p.RefillsLeft,
			"status":        p.Status,
			"prescribed_at": p.PrescribedAt,
			"expires_at":    p.ExpiresAt,
		})
	}

	return &Result{
		Success: true,
		Payload: map[string]any{
			"count":         len(enriched),
			"active_only":   activeOnly,
			"prescriptions": enriched,
		},
		Message: i18n.Get("prescription", "found", lang, i18n.Args{"count": len(enriched)}),
	}, nil
}
