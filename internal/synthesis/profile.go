package synthesis

import "time"

// Company is one held or controlled entity contributed by a company-class
// document.
type Company struct {
	Type     string         `json:"type"`
	Category string         `json:"categorie"`
	Data     map[string]any `json:"donnees"`
}

// Profile is the assembled financing profile. It is built fresh per
// synthesis request and never mutated afterwards, only re-derived.
type Profile struct {
	DossierID       string    `json:"dossier_id"`
	GeneratedAt     time.Time `json:"date_generation"`
	SourceDocuments []string  `json:"documents_sources"`

	SyntheseProjet       map[string]any `json:"synthese_projet"`
	ProfilEmprunteur     map[string]any `json:"profil_emprunteur"`
	Revenus              map[string]any `json:"revenus"`
	PatrimoineImmobilier map[string]any `json:"patrimoine_immobilier"`
	PatrimoineMobilier   map[string]any `json:"patrimoine_mobilier"`
	Societes             []Company      `json:"societes"`
	PlanFinancement      map[string]any `json:"plan_financement"`
	AnalyseFinanciere    map[string]any `json:"analyse_financiere"`
}
