// Package synthesis merges many documents' extractions into one financing
// profile. Routing is category-driven with type-name keywords as a second
// tier and the borrower section as the total-routing safety net.
package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/doctypes"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/fieldval"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/store"
)

// ErrNoUsableInput is returned when no input record carries an extraction.
var ErrNoUsableInput = errors.New("no document with a usable extraction")

// profileConfidence is the fixed score stamped on every synthesis. This
// stage performs no inference of its own, so a constant is more honest
// than a derived number.
const profileConfidence = 0.85

type bucket int

const (
	bucketEmprunteur bucket = iota
	bucketRevenus
	bucketImmobilier
	bucketMobilier
	bucketSocietes
	bucketProjet
	bucketFinancement
)

// categoryRoutes is the primary routing tier.
var categoryRoutes = map[doctypes.Category]bucket{
	doctypes.CategoryAssocies:             bucketEmprunteur,
	doctypes.CategoryEtatCivil:            bucketEmprunteur,
	doctypes.CategoryAssurance:            bucketEmprunteur,
	doctypes.CategoryRevenus:              bucketRevenus,
	doctypes.CategoryPatrimoineImmobilier: bucketImmobilier,
	doctypes.CategoryLocation:             bucketImmobilier,
	doctypes.CategoryBanqueEpargne:        bucketMobilier,
	doctypes.CategoryCreditsCharges:       bucketMobilier,
	doctypes.CategoryCompany:              bucketSocietes,
	doctypes.CategorySocietesControlees:   bucketSocietes,
	doctypes.CategoryObject:               bucketProjet,
	doctypes.CategoryVente:                bucketProjet,
	doctypes.CategoryTravaux:              bucketProjet,
	doctypes.CategoryDiagnostics:          bucketProjet,
	doctypes.CategoryFinancement:          bucketFinancement,
}

// keywordRoutes is the secondary tier, consulted when the category is
// absent or unrecognized. First match wins.
var keywordRoutes = []struct {
	keywords []string
	target   bucket
}{
	{[]string{"société", "societe", "kbis", "statuts", "bilan", "liasse"}, bucketSocietes},
	{[]string{"relevé", "releve", "épargne", "epargne", "compte", "rib"}, bucketMobilier},
	{[]string{"imposition", "salaire", "revenu"}, bucketRevenus},
	{[]string{"taxe foncière", "taxe fonciere", "bail", "location", "état des lieux", "etat des lieux"}, bucketImmobilier},
	{[]string{"vente", "compromis", "travaux", "diagnostic", "acquisition", "cadastral"}, bucketProjet},
	{[]string{"prêt", "pret", "financement", "emprunt"}, bucketFinancement},
}

// route assigns a record to exactly one bucket. Total by construction, the
// borrower bucket absorbs everything the two tiers cannot place.
func route(category doctypes.Category, typeName string) bucket {
	if b, ok := categoryRoutes[category]; ok {
		return b
	}
	lowered := strings.ToLower(typeName)
	for _, rule := range keywordRoutes {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.target
			}
		}
	}
	return bucketEmprunteur
}

// Writer persists assembled profiles.
type Writer interface {
	PutSynthesis(ctx context.Context, syn *store.Synthesis) error
}

// Aggregator builds financing profiles from stored documents.
type Aggregator struct {
	writer Writer
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Aggregator. writer may be nil when persistence is not
// wanted, e.g. for a dry-run endpoint.
func New(writer Writer, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{writer: writer, logger: logger, now: time.Now}
}

// Aggregate merges docs into one profile and appends it to the synthesis
// store. Records without an extraction are ignored; if none remain the call
// fails with ErrNoUsableInput.
func (a *Aggregator) Aggregate(ctx context.Context, docs []*store.Document) (*Profile, error) {
	usable := make([]*store.Document, 0, len(docs))
	for _, d := range docs {
		if d.Extraction != nil && d.Extraction.Fields != nil {
			usable = append(usable, d)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoUsableInput
	}

	buckets := make(map[bucket][]*store.Document)
	var companies []Company
	for _, d := range usable {
		b := route(d.Classification.Category, d.Classification.DocumentType)
		if b == bucketSocietes {
			companies = append(companies, Company{
				Type:     d.Classification.DocumentType,
				Category: string(d.Classification.Category),
				Data:     d.Extraction.Fields,
			})
		}
		buckets[b] = append(buckets[b], d)
	}

	now := a.now().UTC()
	profile := &Profile{
		DossierID:            newDossierID(now),
		GeneratedAt:          now,
		SourceDocuments:      sourceList(usable),
		SyntheseProjet:       mergeBucket(buckets[bucketProjet]),
		ProfilEmprunteur:     mergeBucket(buckets[bucketEmprunteur]),
		Revenus:              mergeBucket(buckets[bucketRevenus]),
		PatrimoineImmobilier: mergeBucket(buckets[bucketImmobilier]),
		PatrimoineMobilier:   mergeBucket(buckets[bucketMobilier]),
		Societes:             companies,
		PlanFinancement:      mergeBucket(buckets[bucketFinancement]),
	}

	a.enrich(profile, buckets)

	if a.writer != nil {
		raw, err := json.Marshal(profile)
		if err != nil {
			return nil, fmt.Errorf("marshal profile: %w", err)
		}
		err = a.writer.PutSynthesis(ctx, &store.Synthesis{
			DossierID:  profile.DossierID,
			Profile:    raw,
			Confidence: profileConfidence,
			CreatedAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("persist synthesis: %w", err)
		}
	}

	a.logger.Info("synthesis.done",
		"dossier_id", profile.DossierID,
		"documents", len(usable),
		"companies", len(companies))
	return profile, nil
}

// sourceList renders the human-readable "type (filename)" list.
func sourceList(docs []*store.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = fmt.Sprintf("%s (%s)", d.Classification.DocumentType, d.Filename)
	}
	return out
}

// mergeBucket folds the bucket's extractions into one field map. Repeated
// fields merge first-non-sentinel-wins: a real value is never overwritten
// by a later "not specified".
func mergeBucket(docs []*store.Document) map[string]any {
	merged := make(map[string]any)
	for _, d := range docs {
		for k, v := range d.Extraction.Fields {
			if existing, ok := merged[k]; ok && fieldval.IsSet(existing) {
				continue
			}
			merged[k] = v
		}
	}
	return merged
}

// enrich derives the computed fields that routing alone cannot produce.
func (a *Aggregator) enrich(p *Profile, buckets map[bucket][]*store.Document) {
	// Monthly income estimate from the annual reference income.
	if rfr, ok := firstAmount(p.Revenus, "revenu_fiscal_reference"); ok {
		p.Revenus["revenu_mensuel_estime"] = FormatEuro(rfr / 12)
	}

	// Movable-asset total: every currency-marked parseable field across the
	// bucket's documents. Parse failures and sentinels are skipped.
	var total float64
	var counted int
	for _, d := range buckets[bucketMobilier] {
		walkStrings(d.Extraction.Fields, func(s string) {
			if fieldval.IsUnset(s) || !ContainsCurrency(s) {
				return
			}
			if v, ok := ParseAmount(s); ok {
				total += v
				counted++
			}
		})
	}
	if counted > 0 {
		p.PatrimoineMobilier["total_estime"] = FormatEuro(total)
	}

	analyse := map[string]any{
		"nombre_documents": len(p.SourceDocuments),
	}
	if monthly, ok := firstAmount(p.Revenus, "revenu_mensuel_estime"); ok && monthly > 0 {
		if mensualite, ok := firstAmount(p.PlanFinancement, "mensualite"); ok {
			analyse["taux_endettement_estime"] = fmt.Sprintf("%.1f %%", mensualite/monthly*100)
		}
	}
	p.AnalyseFinanciere = analyse
}

// firstAmount parses the named field as an amount when it is a set string.
func firstAmount(fields map[string]any, name string) (float64, bool) {
	v, ok := fields[name]
	if !ok || fieldval.IsUnset(v) {
		return 0, false
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	return ParseAmount(s)
}

// walkStrings visits every string value reachable in a field tree.
func walkStrings(v any, fn func(string)) {
	switch val := v.(type) {
	case string:
		fn(val)
	case map[string]any:
		for _, child := range val {
			walkStrings(child, fn)
		}
	case []any:
		for _, child := range val {
			walkStrings(child, fn)
		}
	}
}
