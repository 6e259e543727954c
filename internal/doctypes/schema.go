package doctypes

import (
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/fieldval"
)

// Schema identifiers referenced by catalog entries.
const (
	SchemaGeneric        = "generic"
	SchemaIdentite       = "identite"
	SchemaCV             = "cv"
	SchemaAvisImposition = "avis_imposition"
	SchemaKBIS           = "kbis"
	SchemaStatuts        = "statuts"
	SchemaBilan          = "bilan"
	SchemaReleveBancaire = "releve_bancaire"
	SchemaCompromisVente = "compromis_vente"
	SchemaOffrePret      = "offre_pret"
	SchemaDevisTravaux   = "devis_travaux"
	SchemaDiagnostic     = "diagnostic"
	SchemaBail           = "bail"
	SchemaTaxeFonciere   = "taxe_fonciere"
)

// FieldKind is the shape of an extraction field.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindObject FieldKind = "object"
	KindList   FieldKind = "list" // list of objects
)

// FieldDef describes one field of an extraction schema. Object and list
// fields carry nested field definitions.
type FieldDef struct {
	Name        string
	Kind        FieldKind
	Description string
	Fields      []FieldDef
}

// SchemaDef is a compile-time extraction schema descriptor: an ordered list
// of fields. The order is the canonical field order for rendering.
type SchemaDef struct {
	ID     string
	Fields []FieldDef
}

// FieldNames returns the top-level field names in schema order.
func (s SchemaDef) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// JSONSchema renders the descriptor as a JSON Schema object usable as a
// structured-output contract. Every field is required; string leaves accept
// the "Non spécifié" sentinel instead of being omitted.
func (s SchemaDef) JSONSchema() map[string]any {
	return objectSchema(s.Fields)
}

func objectSchema(fields []FieldDef) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = f.jsonSchema()
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func (f FieldDef) jsonSchema() map[string]any {
	switch f.Kind {
	case KindObject:
		sub := objectSchema(f.Fields)
		if f.Description != "" {
			sub["description"] = f.Description
		}
		return sub
	case KindList:
		out := map[string]any{
			"type":  "array",
			"items": objectSchema(f.Fields),
		}
		if f.Description != "" {
			out["description"] = f.Description
		}
		return out
	default:
		desc := f.Description
		if desc == "" {
			desc = f.Name
		}
		return map[string]any{
			"type":        "string",
			"description": desc + " (\"" + fieldval.NotSpecified + "\" si absent du texte)",
		}
	}
}

func adresseField(name string) FieldDef {
	return FieldDef{Name: name, Kind: KindObject, Description: "adresse postale", Fields: []FieldDef{
		{Name: "rue", Kind: KindString},
		{Name: "code_postal", Kind: KindString},
		{Name: "ville", Kind: KindString},
		{Name: "pays", Kind: KindString},
	}}
}

// builtinSchemas is the fixed schema catalog. The generic schema is the
// fallback for unmapped types.
func builtinSchemas() map[string]SchemaDef {
	defs := []SchemaDef{
		{ID: SchemaGeneric, Fields: []FieldDef{
			{Name: "type", Kind: KindString, Description: "nature du document"},
			{Name: "title", Kind: KindString, Description: "titre ou intitulé"},
			{Name: "date", Kind: KindString, Description: "date du document (JJ/MM/AAAA)"},
			{Name: "issuer", Kind: KindString, Description: "émetteur"},
			{Name: "recipient", Kind: KindString, Description: "destinataire"},
			{Name: "key_info", Kind: KindObject, Description: "informations clés", Fields: []FieldDef{
				{Name: "montant", Kind: KindString},
				{Name: "reference", Kind: KindString},
				{Name: "objet", Kind: KindString},
			}},
			{Name: "details", Kind: KindObject, Description: "détails complémentaires", Fields: []FieldDef{
				{Name: "observations", Kind: KindString},
				{Name: "mentions", Kind: KindString},
			}},
			{Name: "summary", Kind: KindString, Description: "résumé en une ou deux phrases"},
		}},
		{ID: SchemaIdentite, Fields: []FieldDef{
			{Name: "civilite", Kind: KindString},
			{Name: "nom", Kind: KindString},
			{Name: "prenoms", Kind: KindString},
			{Name: "date_naissance", Kind: KindString, Description: "date de naissance (JJ/MM/AAAA)"},
			{Name: "lieu_naissance", Kind: KindString},
			{Name: "nationalite", Kind: KindString},
			{Name: "numero_piece", Kind: KindString, Description: "numéro de la pièce d'identité"},
			{Name: "date_validite", Kind: KindString},
			adresseField("adresse"),
		}},
		{ID: SchemaCV, Fields: []FieldDef{
			{Name: "nom", Kind: KindString},
			{Name: "prenoms", Kind: KindString},
			{Name: "profession", Kind: KindString, Description: "poste ou métier actuel"},
			{Name: "formation", Kind: KindString, Description: "diplômes et formations"},
			{Name: "experiences", Kind: KindList, Description: "expériences professionnelles", Fields: []FieldDef{
				{Name: "periode", Kind: KindString},
				{Name: "poste", Kind: KindString},
				{Name: "entreprise", Kind: KindString},
			}},
		}},
		{ID: SchemaAvisImposition, Fields: []FieldDef{
			{Name: "annee", Kind: KindString, Description: "année des revenus"},
			{Name: "nom_declarant", Kind: KindString},
			{Name: "revenu_fiscal_reference", Kind: KindString, Description: "revenu fiscal de référence en euros"},
			{Name: "nombre_parts", Kind: KindString},
			{Name: "impot_net", Kind: KindString, Description: "impôt net en euros"},
			adresseField("adresse"),
		}},
		{ID: SchemaKBIS, Fields: []FieldDef{
			{Name: "raison_sociale", Kind: KindString},
			{Name: "forme_juridique", Kind: KindString},
			{Name: "capital_social", Kind: KindString},
			{Name: "siren", Kind: KindString},
			{Name: "activite", Kind: KindString},
			{Name: "representant_legal", Kind: KindString},
			{Name: "date_immatriculation", Kind: KindString},
			adresseField("adresse_siege"),
		}},
		{ID: SchemaStatuts, Fields: []FieldDef{
			{Name: "denomination", Kind: KindString},
			{Name: "forme_juridique", Kind: KindString},
			{Name: "capital_social", Kind: KindString},
			{Name: "objet_social", Kind: KindString},
			{Name: "duree", Kind: KindString},
			adresseField("siege_social"),
			{Name: "dirigeants", Kind: KindList, Description: "gérants ou présidents", Fields: []FieldDef{
				{Name: "nom", Kind: KindString},
				{Name: "qualite", Kind: KindString},
			}},
		}},
		{ID: SchemaBilan, Fields: []FieldDef{
			{Name: "raison_sociale", Kind: KindString},
			{Name: "exercice", Kind: KindString, Description: "exercice comptable concerné"},
			{Name: "chiffre_affaires", Kind: KindString, Description: "chiffre d'affaires en euros"},
			{Name: "resultat_net", Kind: KindString, Description: "résultat net en euros"},
			{Name: "fonds_propres", Kind: KindString, Description: "capitaux propres en euros"},
			{Name: "dettes_totales", Kind: KindString, Description: "total des dettes en euros"},
			{Name: "tresorerie", Kind: KindString},
			{Name: "effectif", Kind: KindString},
		}},
		{ID: SchemaReleveBancaire, Fields: []FieldDef{
			{Name: "titulaire", Kind: KindString},
			{Name: "banque", Kind: KindString},
			{Name: "iban", Kind: KindString},
			{Name: "periode", Kind: KindString},
			{Name: "solde_initial", Kind: KindString, Description: "solde en début de période, en euros"},
			{Name: "solde_final", Kind: KindString, Description: "solde en fin de période, en euros"},
		}},
		{ID: SchemaCompromisVente, Fields: []FieldDef{
			{Name: "vendeur", Kind: KindString},
			{Name: "acquereur", Kind: KindString},
			adresseField("adresse_bien"),
			{Name: "description_bien", Kind: KindString},
			{Name: "prix_vente", Kind: KindString, Description: "prix de vente en euros"},
			{Name: "date_signature", Kind: KindString},
			{Name: "conditions_suspensives", Kind: KindString},
		}},
		{ID: SchemaOffrePret, Fields: []FieldDef{
			{Name: "preteur", Kind: KindString},
			{Name: "emprunteur", Kind: KindString},
			{Name: "montant_pret", Kind: KindString, Description: "capital emprunté en euros"},
			{Name: "taux", Kind: KindString},
			{Name: "duree", Kind: KindString},
			{Name: "mensualite", Kind: KindString, Description: "échéance mensuelle en euros"},
			{Name: "capital_restant_du", Kind: KindString, Description: "capital restant dû en euros"},
			{Name: "date_offre", Kind: KindString},
		}},
		{ID: SchemaDevisTravaux, Fields: []FieldDef{
			{Name: "entreprise", Kind: KindString},
			{Name: "description_travaux", Kind: KindString},
			{Name: "montant_ht", Kind: KindString, Description: "montant hors taxes en euros"},
			{Name: "montant_ttc", Kind: KindString, Description: "montant toutes taxes comprises en euros"},
			{Name: "tva", Kind: KindString},
			{Name: "delai_execution", Kind: KindString},
			{Name: "date_devis", Kind: KindString},
		}},
		{ID: SchemaDiagnostic, Fields: []FieldDef{
			{Name: "type_diagnostic", Kind: KindString},
			adresseField("adresse_bien"),
			{Name: "date_diagnostic", Kind: KindString},
			{Name: "diagnostiqueur", Kind: KindString},
			{Name: "resultat", Kind: KindString},
			{Name: "duree_validite", Kind: KindString},
		}},
		{ID: SchemaBail, Fields: []FieldDef{
			{Name: "bailleur", Kind: KindString},
			{Name: "locataire", Kind: KindString},
			adresseField("adresse_bien"),
			{Name: "loyer_mensuel", Kind: KindString, Description: "loyer mensuel hors charges en euros"},
			{Name: "charges", Kind: KindString},
			{Name: "depot_garantie", Kind: KindString},
			{Name: "date_effet", Kind: KindString},
			{Name: "duree", Kind: KindString},
		}},
		{ID: SchemaTaxeFonciere, Fields: []FieldDef{
			{Name: "annee", Kind: KindString},
			{Name: "proprietaire", Kind: KindString},
			adresseField("adresse_bien"),
			{Name: "montant", Kind: KindString, Description: "montant de la taxe en euros"},
		}},
	}

	out := make(map[string]SchemaDef, len(defs))
	for _, d := range defs {
		out[d.ID] = d
	}
	return out
}
