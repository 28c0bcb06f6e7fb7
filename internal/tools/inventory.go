package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pharmassist/pharmassist/internal/i18n"
)

// StockChecker implements check_stock against the external inventory
// service. It reports boolean availability, not exact quantities.
type StockChecker struct {
	baseURL string
	client  *http.Client
}

func NewStockChecker(baseURL string, client *http.Client) *StockChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &StockChecker{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (t *StockChecker) Schema() Schema {
	return Schema{
		Name:        "check_stock",
		Description: "Check whether a medication is currently in stock by catalog id.",
		Params: []Param{
			{Name: "med_id", Type: "string", Description: "Medication catalog id.", Required: true},
			langParam,
		},
	}
}

func (t *StockChecker) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	medID := argString(args, "med_id", "")
	lang := argString(args, "lang", "en")

	endpoint := fmt.Sprintf("%s/check_stock/%s", t.baseURL, url.PathEscape(medID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return &Result{
			Err:     "service_unavailable",
			Message: i18n.Get("inventory", "service_unavailable", lang, nil),
		}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Result{
			Err:     "not_found",
			Message: i18n.Get("inventory", "not_found", lang, i18n.Args{"med_id": medID}),
		}, nil
	case resp.StatusCode != http.StatusOK:
		return &Result{
			Err:     "http_error",
			Message: i18n.Get("inventory", "http_error", lang, nil),
		}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return &Result{
			Err:     "invalid_response",
			Message: i18n.Get("inventory", "invalid_response", lang, nil),
		}, nil
	}

	var payload struct {
		ID      string `json:"id"`
		InStock bool   `json:"in_stock"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &Result{
			Err:     "invalid_response",
			Message: i18n.Get("inventory", "invalid_response", lang, nil),
		}, nil
	}
	if payload.ID == "" {
		payload.ID = medID
	}

	messageKey := "out_of_stock"
	if payload.InStock {
		messageKey = "in_stock"
	}
	return &Result{
		Success: true,
		Payload: map[string]any{
			"id":       payload.ID,
			"in_stock": payload.InStock,
		},
		Message: i18n.Get("inventory", messageKey, lang, i18n.Args{"med_id": payload.ID}),
	}, nil
}
