package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/classify"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/doctypes"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/extract"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/fieldval"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memWriter struct {
	saved []*store.Synthesis
	err   error
}

func (m *memWriter) PutSynthesis(ctx context.Context, syn *store.Synthesis) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, syn)
	return nil
}

func doc(id, typeName string, category doctypes.Category, fields map[string]any) *store.Document {
	return &store.Document{
		ID:       id,
		Filename: id + ".pdf",
		Classification: classify.Result{
			DocumentType: typeName,
			Category:     category,
			Confidence:   0.9,
			Succeeded:    true,
		},
		Extraction: &extract.Result{
			DocumentType: typeName,
			Fields:       fields,
			Confidence:   0.9,
			Succeeded:    true,
		},
		CreatedAt: time.Now(),
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12 500 €", 12500, true},
		{"3 200,50 €", 3200.50, true},
		{"1 234 567,89 EUR", 1234567.89, true},
		{"1.250.000,00 €", 1250000, true},
		{"250000", 250000, true},
		{"€ 42", 42, true},
		{"Non spécifié", 0, false},
		{"", 0, false},
		{"environ deux mille", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatEuro(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12500, "12 500 €"},
		{3200.5, "3 200,50 €"},
		{15700.50, "15 700,50 €"},
		{42, "42 €"},
		{1234567.89, "1 234 567,89 €"},
	}
	for _, tt := range tests {
		if got := FormatEuro(tt.in); got != tt.want {
			t.Errorf("FormatEuro(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAggregateNoUsableInput(t *testing.T) {
	a := New(&memWriter{}, testLogger())

	bad := doc("d1", "Offre de prêt", doctypes.CategoryFinancement, nil)
	bad.Extraction = nil

	_, err := a.Aggregate(context.Background(), []*store.Document{bad})
	if !errors.Is(err, ErrNoUsableInput) {
		t.Fatalf("err = %v, want ErrNoUsableInput", err)
	}
}

func TestAggregateMovableAssetTotal(t *testing.T) {
	a := New(&memWriter{}, testLogger())

	docs := []*store.Document{
		doc("d1", "RIB de l'emprunteur", doctypes.CategoryBanqueEpargne, map[string]any{
			"solde_final": "12 500 €",
			"iban":        fieldval.NotSpecified,
		}),
		doc("d2", "RIB de l'emprunteur", doctypes.CategoryBanqueEpargne, map[string]any{
			"solde_final": "3 200,50 €",
			"periode":     "janvier 2026",
		}),
	}

	p, err := a.Aggregate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := p.PatrimoineMobilier["total_estime"]; got != "15 700,50 €" {
		t.Errorf("total_estime = %v, want 15 700,50 €", got)
	}
}

func TestAggregateMonthlyIncomeEstimate(t *testing.T) {
	a := New(&memWriter{}, testLogger())

	docs := []*store.Document{
		doc("d1", "Avis d'imposition T+N-1", doctypes.CategoryRevenus, map[string]any{
			"revenu_fiscal_reference": "48 000 €",
			"annee":                   "2025",
		}),
	}

	p, err := a.Aggregate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := p.Revenus["revenu_mensuel_estime"]; got != "4 000 €" {
		t.Errorf("revenu_mensuel_estime = %v, want 4 000 €", got)
	}
}

func TestAggregateFirstNonSentinelWins(t *testing.T) {
	a := New(&memWriter{}, testLogger())

	docs := []*store.Document{
		doc("d1", "Avis d'imposition T+N-1", doctypes.CategoryRevenus, map[string]any{
			"nom_declarant":           "Jean Martin",
			"revenu_fiscal_reference": fieldval.NotSpecified,
		}),
		doc("d2", "Avis d'imposition T+N-2", doctypes.CategoryRevenus, map[string]any{
			"nom_declarant":           fieldval.NotSpecified,
			"revenu_fiscal_reference": "36 000 €",
		}),
	}

	p, err := a.Aggregate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// A real value is never replaced by a later sentinel, and a sentinel is
	// replaced by a later real value.
	if p.Revenus["nom_declarant"] != "Jean Martin" {
		t.Errorf("nom_declarant = %v", p.Revenus["nom_declarant"])
	}
	if p.Revenus["revenu_fiscal_reference"] != "36 000 €" {
		t.Errorf("revenu_fiscal_reference = %v", p.Revenus["revenu_fiscal_reference"])
	}
}

func TestAggregateCompanyRouting(t *testing.T) {
	a := New(&memWriter{}, testLogger())

	docs := []*store.Document{
		doc("d1", "KBIS société emprunteur", doctypes.CategoryCompany, map[string]any{
			"raison_sociale": "EXEMPLE SARL",
		}),
		doc("d2", "Bilans et comptes de résultat de la société contrôlée N-1", doctypes.CategorySocietesControlees, map[string]any{
			"raison_sociale": "FILIALE SAS",
		}),
	}

	p, err := a.Aggregate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(p.Societes) != 2 {
		t.Fatalf("Societes = %d entries, want 2", len(p.Societes))
	}
	if p.Societes[0].Type != "KBIS société emprunteur" {
		t.Errorf("Societes[0].Type = %q", p.Societes[0].Type)
	}
	if p.Societes[1].Data["raison_sociale"] != "FILIALE SAS" {
		t.Errorf("Societes[1].Data = %v", p.Societes[1].Data)
	}
}

func TestRoutingTotality(t *testing.T) {
	// Unrecognized category, no keyword in the type name: the record must
	// land in the residual borrower bucket, never be dropped.
	a := New(&memWriter{}, testLogger())

	docs := []*store.Document{
		doc("d1", "Document mystère", "Catégorie inconnue", map[string]any{
			"champ": "valeur",
		}),
	}

	p, err := a.Aggregate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if p.ProfilEmprunteur["champ"] != "valeur" {
		t.Errorf("record not routed to the residual bucket: %v", p.ProfilEmprunteur)
	}
}

func TestRouteKeywordTier(t *testing.T) {
	tests := []struct {
		typeName string
		want     bucket
	}{
		{"Relevé de compte épargne", bucketMobilier},
		{"Bilan comptable simplifié", bucketSocietes},
		{"Justificatif de salaire", bucketRevenus},
		{"Compromis de vente annexe", bucketProjet},
		{"Offre de prêt relais", bucketFinancement},
		{"Document mystère", bucketEmprunteur},
	}
	for _, tt := range tests {
		if got := route("Catégorie inconnue", tt.typeName); got != tt.want {
			t.Errorf("route(%q) = %v, want %v", tt.typeName, got, tt.want)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	docs := []*store.Document{
		doc("d1", "Avis d'imposition T+N-1", doctypes.CategoryRevenus, map[string]any{
			"revenu_fiscal_reference": "48 000 €",
		}),
		doc("d2", "RIB de l'emprunteur", doctypes.CategoryBanqueEpargne, map[string]any{
			"solde_final": "12 500 €",
		}),
		doc("d3", "Compromis de vente", doctypes.CategoryObject, map[string]any{
			"prix_vente": "300 000 €",
		}),
	}

	a := New(nil, testLogger())
	first, err := a.Aggregate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	second, err := a.Aggregate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	// Identity fields differ per run; routing and derivations must not.
	first.DossierID, second.DossierID = "", ""
	first.GeneratedAt, second.GeneratedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("aggregation is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAggregatePersistsProfile(t *testing.T) {
	w := &memWriter{}
	a := New(w, testLogger())

	docs := []*store.Document{
		doc("d1", "Offre de prêt", doctypes.CategoryFinancement, map[string]any{
			"montant_pret": "250 000 €",
		}),
	}

	p, err := a.Aggregate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(w.saved) != 1 {
		t.Fatalf("saved = %d", len(w.saved))
	}
	syn := w.saved[0]
	if syn.DossierID != p.DossierID {
		t.Errorf("DossierID = %q, want %q", syn.DossierID, p.DossierID)
	}
	if syn.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", syn.Confidence)
	}

	var stored Profile
	if err := json.Unmarshal(syn.Profile, &stored); err != nil {
		t.Fatalf("stored profile is not valid JSON: %v", err)
	}
	if stored.PlanFinancement["montant_pret"] != "250 000 €" {
		t.Errorf("stored plan = %v", stored.PlanFinancement)
	}

	if len(p.SourceDocuments) != 1 || p.SourceDocuments[0] != "Offre de prêt (d1.pdf)" {
		t.Errorf("SourceDocuments = %v", p.SourceDocuments)
	}
}

func TestDossierIDsUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newDossierID(now)
		if seen[id] {
			t.Fatalf("duplicate dossier id %q", id)
		}
		seen[id] = true
	}
}
