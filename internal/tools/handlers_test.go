package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmassist/pharmassist/internal/meddata"
	"github.com/pharmassist/pharmassist/internal/store"
)

// fakeSource is an in-memory catalog for handler tests.
type fakeSource struct {
	meds []*meddata.Medication
}

func (s *fakeSource) MedicationByID(_ context.Context, id string) (*meddata.Medication, error) {
	for _, med := range s.meds {
		if med.ID == id {
			return med, nil
		}
	}
	return nil, nil
}

func (s *fakeSource) MedicationByName(_ context.Context, name, lang string) (*meddata.NameMatch, error) {
	for _, med := range s.meds {
		if med.Names[lang] == name {
			return &meddata.NameMatch{Medication: med}, nil
		}
	}
	return nil, nil
}

func (s *fakeSource) SearchByIngredient(_ context.Context, ingredient, lang string) ([]*meddata.Medication, error) {
	var out []*meddata.Medication
	for _, med := range s.meds {
		if med.ActiveIngredient[lang] == ingredient {
			out = append(out, med)
		}
	}
	return out, nil
}

func testSource() *fakeSource {
	return &fakeSource{meds: []*meddata.Medication{
		{
			ID:                   "med_001",
			Dosage:               "500mg",
			PrescriptionRequired: true,
			PriceUSD:             4.5,
			Names:                map[string]string{"en": "Paracetamol", "he": "פרצטמול"},
			ActiveIngredient:     map[string]string{"en": "Acetaminophen"},
			UsageInstructions:    map[string]string{"en": "Take with water."},
			Warnings:             map[string]string{"en": "Do not exceed 4g per day."},
			Category:             map[string]string{"en": "Pain relief"},
		},
	}}
}

func TestMedicationResolver(t *testing.T) {
	tool := NewMedicationResolver(testSource())

	res, err := tool.Execute(context.Background(), map[string]any{"name": "Paracetamol", "lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "med_001", res.Payload["id"])

	res, err = tool.Execute(context.Background(), map[string]any{"name": "Unobtainium", "lang": "en"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestMedicationInfoByIDAndName(t *testing.T) {
	tool := NewMedicationInfo(testSource())

	res, err := tool.Execute(context.Background(), map[string]any{"query": "med_001", "lang": "he"})
	require.NoError(t, err)
	require.True(t, res.Success)
	med := res.Payload["medication"].(map[string]any)
	assert.Equal(t, "פרצטמול", med["name"])
	// missing Hebrew translation falls back to English
	assert.Equal(t, "Acetaminophen", med["active_ingredient"])

	res, err = tool.Execute(context.Background(), map[string]any{"query": "Paracetamol", "lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestIngredientSearchNoResults(t *testing.T) {
	tool := NewIngredientSearch(testSource())

	res, err := tool.Execute(context.Background(), map[string]any{"ingredient": "Ibuprofen", "lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Payload["matches"])
	assert.NotEmpty(t, res.Message)
}

func TestStockChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/check_stock/med_001":
			w.Write([]byte(`{"id":"med_001","in_stock":true}`))
		case "/check_stock/med_404":
			w.WriteHeader(http.StatusNotFound)
		case "/check_stock/med_garbage":
			w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	tool := NewStockChecker(srv.URL, srv.Client())

	res, err := tool.Execute(context.Background(), map[string]any{"med_id": "med_001", "lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, true, res.Payload["in_stock"])

	res, err = tool.Execute(context.Background(), map[string]any{"med_id": "med_404", "lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, "not_found", res.Err)

	res, err = tool.Execute(context.Background(), map[string]any{"med_id": "med_garbage", "lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, "invalid_response", res.Err)

	res, err = tool.Execute(context.Background(), map[string]any{"med_id": "med_500", "lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, "http_error", res.Err)
}

func TestStockCheckerServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	tool := NewStockChecker(srv.URL, &http.Client{Timeout: time.Second})
	res, err := tool.Execute(context.Background(), map[string]any{"med_id": "med_001", "lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, "service_unavailable", res.Err)
}

func testPharmacies() []*meddata.Pharmacy {
	return []*meddata.Pharmacy{
		{ID: "ph_001", Name: "Central Pharmacy", Address: "1 Main St", City: "Tel Aviv", ZipCode: "61000",
			Phone: "03-1234567", Hours: map[string]string{"sunday": "08:00-20:00", "monday": "08:00-20:00"}},
		{ID: "ph_002", Name: "Harbor Pharmacy", Address: "5 Port Rd", City: "Haifa", ZipCode: "31000",
			Phone: "04-7654321", Hours: map[string]string{"friday": "08:00-14:00"}},
	}
}

func TestPharmacyLocatorByZipAndCity(t *testing.T) {
	tool := NewPharmacyLocator(testPharmacies())

	res, err := tool.Execute(context.Background(), map[string]any{"zip_code": "61000", "lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Payload["count"])

	res, err = tool.Execute(context.Background(), map[string]any{"city": "haifa", "lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Payload["count"])
}

func TestPharmacyLocatorFuzzyCity(t *testing.T) {
	tool := NewPharmacyLocator(testPharmacies())

	res, err := tool.Execute(context.Background(), map[string]any{"city": "Tel Avivv", "lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Payload["count"])
	assert.Equal(t, "Tel Aviv", res.Payload["searched_location"])
}

func TestPharmacyLocatorUnknownLocation(t *testing.T) {
	tool := NewPharmacyLocator(testPharmacies())

	res, err := tool.Execute(context.Background(), map[string]any{"city": "Springfield", "lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, true, res.Payload["location_not_found"])
	assert.Equal(t, 0, res.Payload["count"])
	assert.NotEmpty(t, res.Message)
}

func TestPharmacyLocatorMissingLocation(t *testing.T) {
	tool := NewPharmacyLocator(testPharmacies())

	res, err := tool.Execute(context.Background(), map[string]any{"lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, "missing_location", res.Err)
}

func TestPrescriptionLister(t *testing.T) {
	st, err := store.Open(store.Config{Path: ":memory:", SeedDemo: true})
	require.NoError(t, err)
	defer st.Close()

	tool := NewPrescriptionLister(st, testSource())

	res, err := tool.Execute(context.Background(), map[string]any{"user_id": "USER001", "active_only": true, "lang": "en"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Payload["count"])
	first := res.Payload["prescriptions"].([]any)[0].(map[string]any)
	assert.Equal(t, "Paracetamol", first["med_name"])

	res, err = tool.Execute(context.Background(), map[string]any{"user_id": "USER002", "lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Payload["count"])
}

func TestHandlingAdvisor(t *testing.T) {
	tool := NewHandlingAdvisor(testSource())

	res, err := tool.Execute(context.Background(), map[string]any{"med_id": "med_001", "lang": "en"})
	require.NoError(t, err)
	require.True(t, res.Success)
	// prescription-only meds get the extra handling line
	assert.Len(t, res.Payload["handling_instructions"], 3)
	assert.Equal(t, "Do not exceed 4g per day.", res.Payload["label_warnings"])

	res, err = tool.Execute(context.Background(), map[string]any{"med_id": "med_999", "lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, "not_found", res.Err)
}
