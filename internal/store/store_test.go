package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/classify"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/extract"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/fieldval"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDocument(id string) *Document {
	return &Document{
		ID:       id,
		Filename: id + ".pdf",
		RawText:  "Extrait KBIS",
		Classification: classify.Result{
			DocumentType: "KBIS société emprunteur",
			Category:     "Company",
			Confidence:   0.9,
			Method:       classify.MethodLLM,
			Succeeded:    true,
		},
		Extraction: &extract.Result{
			DocumentType: "KBIS société emprunteur",
			SchemaID:     "kbis",
			Fields: map[string]any{
				"raison_sociale": "EXEMPLE SARL",
				"capital_social": "10 000 €",
				"siren":          fieldval.NotSpecified,
			},
			Confidence: 0.9,
			Succeeded:  true,
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestDocumentRoundTripKeepsSentinel(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := sampleDocument("doc-1")
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}

	got, err := s.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Filename != doc.Filename {
		t.Errorf("Filename = %q", got.Filename)
	}
	if got.Classification.DocumentType != doc.Classification.DocumentType {
		t.Errorf("DocumentType = %q", got.Classification.DocumentType)
	}
	if got.Extraction == nil {
		t.Fatal("Extraction lost in round trip")
	}
	// The sentinel must come back as the exact string, never null or empty.
	if got.Extraction.Fields["siren"] != fieldval.NotSpecified {
		t.Errorf("siren = %v, want sentinel", got.Extraction.Fields["siren"])
	}
	if got.Extraction.Fields["capital_social"] != "10 000 €" {
		t.Errorf("capital_social = %v", got.Extraction.Fields["capital_social"])
	}
}

func TestDocumentWithNilExtraction(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := sampleDocument("doc-2")
	doc.Extraction = nil
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}

	got, err := s.GetDocument(ctx, "doc-2")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Extraction != nil {
		t.Errorf("Extraction = %+v, want nil", got.Extraction)
	}
}

func TestGetDocumentsWithExtractions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	withExt := sampleDocument("doc-a")
	withoutExt := sampleDocument("doc-b")
	withoutExt.Extraction = nil
	for _, d := range []*Document{withExt, withoutExt} {
		if err := s.PutDocument(ctx, d); err != nil {
			t.Fatalf("PutDocument: %v", err)
		}
	}

	got, err := s.GetDocumentsWithExtractions(ctx, []string{"doc-a", "doc-b", "doc-missing"})
	if err != nil {
		t.Fatalf("GetDocumentsWithExtractions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "doc-a" {
		t.Errorf("got %d records, want only doc-a", len(got))
	}
}

func TestDeleteDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.PutDocument(ctx, sampleDocument("doc-del")); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}
	if err := s.DeleteDocument(ctx, "doc-del"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument(ctx, "doc-del"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteDocument(ctx, "doc-del"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestSynthesisRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	syn := &Synthesis{
		DossierID:  "DOSS-20260829_101500",
		Profile:    []byte(`{"revenus":{"revenu_fiscal_reference":"Non spécifié"}}`),
		Confidence: 0.7,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := s.PutSynthesis(ctx, syn); err != nil {
		t.Fatalf("PutSynthesis: %v", err)
	}

	got, err := s.GetSynthesis(ctx, syn.DossierID)
	if err != nil {
		t.Fatalf("GetSynthesis: %v", err)
	}
	if string(got.Profile) != string(syn.Profile) {
		t.Errorf("Profile = %s", got.Profile)
	}
	if got.Confidence != 0.7 {
		t.Errorf("Confidence = %v", got.Confidence)
	}

	if _, err := s.GetSynthesis(ctx, "DOSS-unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"d1", "d2"} {
		if err := s.PutDocument(ctx, sampleDocument(id)); err != nil {
			t.Fatalf("PutDocument: %v", err)
		}
	}
	other := sampleDocument("d3")
	other.Classification.DocumentType = "Offre de prêt"
	if err := s.PutDocument(ctx, other); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Documents != 3 {
		t.Errorf("Documents = %d", stats.Documents)
	}
	if stats.ByDocumentType["KBIS société emprunteur"] != 2 {
		t.Errorf("type counts = %v", stats.ByDocumentType)
	}
}
