// Package doctypes holds the closed catalog of document type definitions:
// the type name, its category, the extraction schema bound to it, and a
// short hint used when building classification prompts.
package doctypes

// Category is the coarse bucket a document type belongs to. The set is
// fixed; catalog reloads are validated against it.
type Category string

const (
	CategoryAssocies             Category = "Associés"
	CategoryEtatCivil            Category = "Etat civil"
	CategoryCompany              Category = "Company"
	CategorySocietesControlees   Category = "Sociétés contrôlées"
	CategoryObject               Category = "Object"
	CategoryVente                Category = "Vente"
	CategoryTravaux              Category = "Travaux"
	CategoryFinancement          Category = "Financement"
	CategoryAssurance            Category = "Assurance"
	CategoryDiagnostics          Category = "Diagnostics"
	CategoryLocation             Category = "Location"
	CategoryRevenus              Category = "Revenus"
	CategoryPatrimoineImmobilier Category = "Patrimoine immobilier"
	CategoryBanqueEpargne        Category = "Banque et épargne"
	CategoryCreditsCharges       Category = "Crédits et charges divers hors immobilier"
	CategoryAutre                Category = "Autre"
)

// knownCategories is the closed set used for catalog validation.
var knownCategories = map[Category]struct{}{
	CategoryAssocies:             {},
	CategoryEtatCivil:            {},
	CategoryCompany:              {},
	CategorySocietesControlees:   {},
	CategoryObject:               {},
	CategoryVente:                {},
	CategoryTravaux:              {},
	CategoryFinancement:          {},
	CategoryAssurance:            {},
	CategoryDiagnostics:          {},
	CategoryLocation:             {},
	CategoryRevenus:              {},
	CategoryPatrimoineImmobilier: {},
	CategoryBanqueEpargne:        {},
	CategoryCreditsCharges:       {},
	CategoryAutre:                {},
}

// KnownCategory reports whether c belongs to the fixed category set.
func KnownCategory(c Category) bool {
	_, ok := knownCategories[c]
	return ok
}

// Def describes one catalog entry. Name is the unique key; SchemaID binds
// the entry to an extraction schema (falling back to the generic schema
// when empty or unknown).
type Def struct {
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"category" yaml:"category"`
	SchemaID string   `json:"schema_id" yaml:"schema_id"`
	Hint     string   `json:"hint,omitempty" yaml:"hint,omitempty"`
}
