package agent

import (
	"strings"
	"testing"

	"github.com/pharmassist/pharmassist/internal/meddata"
)

func promptCatalog() []*meddata.Medication {
	return []*meddata.Medication{
		{
			ID:       "med_001",
			Dosage:   "500mg",
			PriceUSD: 4.9,
			Names:    map[string]string{"en": "Paracetamol", "he": "פרצטמול"},
			ActiveIngredient: map[string]string{
				"en": "paracetamol",
			},
			Category: map[string]string{"en": "Pain relief"},
		},
	}
}

func TestSystemPromptEmbedsCatalog(t *testing.T) {
	builder := NewPromptBuilder(promptCatalog())

	prompt := builder.SystemPrompt("en")
	if !strings.Contains(prompt, `"name": "Paracetamol"`) {
		t.Fatal("English prompt missing English medication name")
	}
	if !strings.Contains(prompt, "English preferred for this session") {
		t.Fatal("prompt missing language preference")
	}

	hebrew := builder.SystemPrompt("he")
	if !strings.Contains(hebrew, "פרצטמול") {
		t.Fatal("Hebrew prompt missing localized medication name")
	}
	if !strings.Contains(hebrew, "Hebrew preferred for this session") {
		t.Fatal("Hebrew prompt missing language preference")
	}
}

func TestSystemPromptCached(t *testing.T) {
	builder := NewPromptBuilder(promptCatalog())
	first := builder.SystemPrompt("en")
	second := builder.SystemPrompt("en")
	if first != second {
		t.Fatal("cached prompt differs between calls")
	}
}

func TestSystemPromptUnknownLanguageFallsBack(t *testing.T) {
	builder := NewPromptBuilder(promptCatalog())
	prompt := builder.SystemPrompt("fr")
	if !strings.Contains(prompt, "English preferred for this session") {
		t.Fatal("unknown language should fall back to English")
	}
}
