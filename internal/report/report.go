// Package report renders a financing profile as a Markdown document ready
// for word-processor import or direct display.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/fieldval"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/synthesis"
)

// Renderer produces the "carte de financement" report.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer { return &Renderer{} }

// Render writes the full eight-section report. Sentinel fields render as
// their literal "Non spécifié" text, absence of data is itself information
// for the reader.
func (r *Renderer) Render(p *synthesis.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# CARTE DE FINANCEMENT\n\n")
	fmt.Fprintf(&b, "Dossier : %s  \n", p.DossierID)
	fmt.Fprintf(&b, "Générée le : %s\n\n", p.GeneratedAt.Format("02/01/2006 15:04"))

	section(&b, "1. SYNTHÈSE DU PROJET", p.SyntheseProjet)
	section(&b, "2. PROFIL EMPRUNTEUR", p.ProfilEmprunteur)
	section(&b, "3. REVENUS", p.Revenus)
	section(&b, "4. PATRIMOINE IMMOBILIER", p.PatrimoineImmobilier)
	section(&b, "5. PATRIMOINE MOBILIER", p.PatrimoineMobilier)

	fmt.Fprintf(&b, "## 6. SOCIÉTÉS\n\n")
	if len(p.Societes) == 0 {
		fmt.Fprintf(&b, "%s\n\n", fieldval.NotSpecified)
	}
	for i, soc := range p.Societes {
		name := fieldval.NotSpecified
		if v, ok := soc.Data["raison_sociale"].(string); ok && fieldval.IsSet(v) {
			name = v
		} else if v, ok := soc.Data["denomination"].(string); ok && fieldval.IsSet(v) {
			name = v
		}
		fmt.Fprintf(&b, "### 6.%d %s\n\n", i+1, name)
		fmt.Fprintf(&b, "Document : %s\n\n", soc.Type)
		fields(&b, soc.Data)
	}

	section(&b, "7. PLAN DE FINANCEMENT", p.PlanFinancement)
	section(&b, "8. ANALYSE FINANCIÈRE", p.AnalyseFinanciere)

	fmt.Fprintf(&b, "## DOCUMENTS SOURCES\n\n")
	for _, src := range p.SourceDocuments {
		fmt.Fprintf(&b, "- %s\n", src)
	}
	b.WriteString("\n")

	return b.String()
}

func section(b *strings.Builder, title string, data map[string]any) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(data) == 0 {
		fmt.Fprintf(b, "%s\n\n", fieldval.NotSpecified)
		return
	}
	fields(b, data)
}

// fields renders a field map as a bullet list, keys sorted for stable
// output, nested structures indented underneath their parent.
func fields(b *strings.Builder, data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		writeField(b, 0, k, data[k])
	}
	b.WriteString("\n")
}

func writeField(b *strings.Builder, depth int, name string, value any) {
	indent := strings.Repeat("  ", depth)
	label := labelize(name)

	switch v := value.(type) {
	case map[string]any:
		fmt.Fprintf(b, "%s- **%s** :\n", indent, label)
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeField(b, depth+1, k, v[k])
		}
	case []any:
		fmt.Fprintf(b, "%s- **%s** :\n", indent, label)
		for i, item := range v {
			writeField(b, depth+1, fmt.Sprintf("%d", i+1), item)
		}
	case nil:
		fmt.Fprintf(b, "%s- **%s** : %s\n", indent, label, fieldval.NotSpecified)
	default:
		fmt.Fprintf(b, "%s- **%s** : %v\n", indent, label, v)
	}
}

// labelize turns a snake_case field name into display text.
func labelize(name string) string {
	out := strings.ReplaceAll(name, "_", " ")
	if out == "" {
		return out
	}
	return strings.ToUpper(out[:1]) + out[1:]
}
