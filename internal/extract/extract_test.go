package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/doctypes"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/fieldval"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/providers"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractSuccess(t *testing.T) {
	reg := doctypes.NewRegistry(testLogger())
	mock := providers.NewMockLLM(`{
		"raison_sociale": "EXEMPLE SARL",
		"forme_juridique": "SARL",
		"capital_social": "10 000 €",
		"siren": "123 456 789",
		"adresse_siege": "Non spécifié",
		"date_immatriculation": "12/03/2015",
		"representant_legal": "Jean Martin",
		"activite": "Non spécifié"
	}`)
	e := New(reg, mock, Config{}, testLogger())

	res := e.Extract(context.Background(), "Extrait KBIS ...", "KBIS société emprunteur")
	if !res.Succeeded {
		t.Fatalf("Succeeded = false: %s", res.ErrorDetail)
	}
	if res.SchemaID != doctypes.SchemaKBIS {
		t.Errorf("SchemaID = %q, want %q", res.SchemaID, doctypes.SchemaKBIS)
	}
	if res.Confidence != successConfidence {
		t.Errorf("Confidence = %v, want %v", res.Confidence, successConfidence)
	}
	if res.Fields["raison_sociale"] != "EXEMPLE SARL" {
		t.Errorf("raison_sociale = %v", res.Fields["raison_sociale"])
	}
	if !fieldval.IsUnset(res.Fields["adresse_siege"]) {
		t.Errorf("adresse_siege should be the sentinel, got %v", res.Fields["adresse_siege"])
	}
}

func TestExtractBackfillsMissingFields(t *testing.T) {
	reg := doctypes.NewRegistry(testLogger())
	// Response omits most schema fields.
	mock := providers.NewMockLLM(`{"raison_sociale": "EXEMPLE SARL"}`)
	e := New(reg, mock, Config{}, testLogger())

	res := e.Extract(context.Background(), "texte", "KBIS société emprunteur")
	if !res.Succeeded {
		t.Fatalf("Succeeded = false: %s", res.ErrorDetail)
	}

	schema := reg.SchemaFor("KBIS société emprunteur")
	for _, name := range schema.FieldNames() {
		v, ok := res.Fields[name]
		if !ok {
			t.Errorf("field %q missing from result", name)
			continue
		}
		if name != "raison_sociale" && v != fieldval.NotSpecified {
			t.Errorf("field %q = %v, want sentinel", name, v)
		}
	}
}

func TestExtractUnknownTypeUsesGenericSchema(t *testing.T) {
	reg := doctypes.NewRegistry(testLogger())
	mock := providers.NewMockLLM(`{"type": "courrier", "title": "Non spécifié"}`)
	e := New(reg, mock, Config{}, testLogger())

	res := e.Extract(context.Background(), "texte", "type-inexistant")
	if !res.Succeeded {
		t.Fatalf("Succeeded = false: %s", res.ErrorDetail)
	}
	if res.SchemaID != doctypes.SchemaGeneric {
		t.Errorf("SchemaID = %q, want generic", res.SchemaID)
	}
	if _, ok := res.Fields["summary"]; !ok {
		t.Error("generic schema field summary not backfilled")
	}
}

func TestExtractNoFallbackOnFailure(t *testing.T) {
	reg := doctypes.NewRegistry(testLogger())
	mock := providers.NewMockLLM()
	mock.FailWith(errors.New("backend unavailable"))
	e := New(reg, mock, Config{}, testLogger())

	res := e.Extract(context.Background(), "texte", "Offre de prêt")
	if res.Succeeded {
		t.Fatal("Succeeded should be false when inference fails")
	}
	if res.Fields != nil {
		t.Errorf("no fields may be fabricated on failure, got %v", res.Fields)
	}
	if !strings.Contains(res.ErrorDetail, "backend unavailable") {
		t.Errorf("ErrorDetail = %q", res.ErrorDetail)
	}
}

func TestExtractPromptCarriesSentinelInstruction(t *testing.T) {
	reg := doctypes.NewRegistry(testLogger())
	mock := providers.NewMockLLM(`{}`)
	e := New(reg, mock, Config{}, testLogger())

	e.Extract(context.Background(), "texte", "Offre de prêt")

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	prompt := calls[0].Messages[0].Content
	if !strings.Contains(prompt, fieldval.NotSpecified) {
		t.Error("prompt must instruct the model to use the sentinel")
	}
	if calls[0].ResponseFormat == nil {
		t.Error("extraction must use the constrained output contract")
	}
}

func TestExtractTruncatesOnRuneBoundary(t *testing.T) {
	reg := doctypes.NewRegistry(testLogger())
	mock := providers.NewMockLLM(`{}`)
	e := New(reg, mock, Config{}, testLogger())

	// One leading ASCII byte shifts every two-byte rune so the raw byte
	// budget falls mid-rune.
	long := "a" + strings.Repeat("é", maxExtractChars)
	e.Extract(context.Background(), long, "Offre de prêt")

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	if prompt := calls[0].Messages[0].Content; !utf8.ValidString(prompt) {
		t.Error("prompt contains invalid UTF-8 after truncation")
	}
}
