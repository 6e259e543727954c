package doctypes

// DefaultCatalog returns the built-in catalog of French administrative and
// financial document types. The list mirrors the production seed data; the
// trailing "Autre" entry is the designated fallback for documents that match
// nothing else.
func DefaultCatalog() []Def {
	return []Def{
		{Name: "CV(s) du(des) associé(s)", Category: CategoryAssocies, SchemaID: SchemaCV,
			Hint: "curriculum vitae d'un associé ou dirigeant"},
		{Name: "Compromis de vente", Category: CategoryObject, SchemaID: SchemaCompromisVente,
			Hint: "avant-contrat de vente immobilière signé entre vendeur et acquéreur"},
		{Name: "Bail ou projet de bail du bien objet de l'acquisition", Category: CategoryObject, SchemaID: SchemaBail,
			Hint: "contrat de location du bien à acquérir"},
		{Name: "Projet de statuts société emprunteur", Category: CategoryCompany, SchemaID: SchemaStatuts,
			Hint: "statuts non encore signés de la société qui emprunte"},
		{Name: "Organigramme des sociétés de la société emprunteur", Category: CategoryCompany, SchemaID: SchemaGeneric,
			Hint: "schéma des participations et filiales"},
		{Name: "KBIS société emprunteur", Category: CategoryCompany, SchemaID: SchemaKBIS,
			Hint: "extrait d'immatriculation au registre du commerce"},
		{Name: "Statuts société emprunteur", Category: CategoryCompany, SchemaID: SchemaStatuts,
			Hint: "statuts signés de la société qui emprunte"},
		{Name: "PV d'AG autorisant la société à emprunter", Category: CategoryCompany, SchemaID: SchemaGeneric,
			Hint: "procès-verbal d'assemblée générale"},
		{Name: "Liasses fiscales société emprunteur N-1", Category: CategoryCompany, SchemaID: SchemaBilan,
			Hint: "déclaration fiscale annuelle, dernier exercice"},
		{Name: "Liasses fiscales société emprunteur N-2", Category: CategoryCompany, SchemaID: SchemaBilan,
			Hint: "déclaration fiscale annuelle, avant-dernier exercice"},
		{Name: "Bilan et compte de résultat détaillés de l'emprunteur N-1", Category: CategoryCompany, SchemaID: SchemaBilan,
			Hint: "comptes annuels du dernier exercice"},
		{Name: "Bilan et compte de résultat détaillés de l'emprunteur N-2", Category: CategoryCompany, SchemaID: SchemaBilan,
			Hint: "comptes annuels de l'avant-dernier exercice"},
		{Name: "Avis d'imposition T+N-1", Category: CategoryRevenus, SchemaID: SchemaAvisImposition,
			Hint: "avis d'impôt sur le revenu, dernière année"},
		{Name: "Avis d'imposition T+N-2", Category: CategoryRevenus, SchemaID: SchemaAvisImposition,
			Hint: "avis d'impôt sur le revenu, avant-dernière année"},
		{Name: "Tableau de remboursement d'emprunt", Category: CategoryFinancement, SchemaID: SchemaOffrePret,
			Hint: "échéancier d'amortissement d'un crédit en cours"},
		{Name: "Attestation de prêt", Category: CategoryFinancement, SchemaID: SchemaOffrePret,
			Hint: "attestation bancaire d'un prêt accordé"},
		{Name: "Offre de prêt", Category: CategoryFinancement, SchemaID: SchemaOffrePret,
			Hint: "offre de crédit émise par un établissement prêteur"},
		{Name: "Plan de financement prévisionnel", Category: CategoryFinancement, SchemaID: SchemaGeneric,
			Hint: "tableau emplois/ressources du projet"},
		{Name: "RIB de l'emprunteur", Category: CategoryBanqueEpargne, SchemaID: SchemaReleveBancaire,
			Hint: "relevé d'identité bancaire"},
		{Name: "Pièce d'identité du représentant légal", Category: CategoryAssocies, SchemaID: SchemaIdentite,
			Hint: "carte nationale d'identité ou passeport"},
		{Name: "Attestation d'assurance", Category: CategoryAssurance, SchemaID: SchemaGeneric,
			Hint: "justificatif de couverture d'assurance"},
		{Name: "Bilans et comptes de résultat de la société contrôlée N-1", Category: CategorySocietesControlees, SchemaID: SchemaBilan,
			Hint: "comptes annuels d'une société contrôlée, dernier exercice"},
		{Name: "Bilans et comptes de résultat de la société contrôlée N-2", Category: CategorySocietesControlees, SchemaID: SchemaBilan,
			Hint: "comptes annuels d'une société contrôlée, avant-dernier exercice"},
		{Name: "Bilans et comptes de résultat de la société contrôlée N-3", Category: CategorySocietesControlees, SchemaID: SchemaBilan,
			Hint: "comptes annuels d'une société contrôlée, exercice N-3"},
		{Name: "Devis des travaux prévisionnels", Category: CategoryTravaux, SchemaID: SchemaDevisTravaux,
			Hint: "devis établi par une entreprise de travaux"},
		{Name: "Factures d'acompte travaux", Category: CategoryTravaux, SchemaID: SchemaDevisTravaux,
			Hint: "factures intermédiaires de travaux"},
		{Name: "Facture finale des travaux", Category: CategoryTravaux, SchemaID: SchemaDevisTravaux,
			Hint: "facture de solde des travaux"},
		{Name: "Attestation de fin de travaux", Category: CategoryTravaux, SchemaID: SchemaGeneric,
			Hint: "déclaration d'achèvement des travaux"},
		{Name: "Diagnostic de performance énergétique", Category: CategoryDiagnostics, SchemaID: SchemaDiagnostic,
			Hint: "DPE avec classe énergie et GES"},
		{Name: "Diagnostic amiante", Category: CategoryDiagnostics, SchemaID: SchemaDiagnostic,
			Hint: "repérage amiante avant vente"},
		{Name: "Diagnostic plomb", Category: CategoryDiagnostics, SchemaID: SchemaDiagnostic,
			Hint: "constat de risque d'exposition au plomb"},
		{Name: "Diagnostic termites", Category: CategoryDiagnostics, SchemaID: SchemaDiagnostic,
			Hint: "état relatif à la présence de termites"},
		{Name: "Diagnostic gaz", Category: CategoryDiagnostics, SchemaID: SchemaDiagnostic,
			Hint: "état de l'installation intérieure de gaz"},
		{Name: "Diagnostic électricité", Category: CategoryDiagnostics, SchemaID: SchemaDiagnostic,
			Hint: "état de l'installation intérieure d'électricité"},
		{Name: "État des lieux d'entrée", Category: CategoryLocation, SchemaID: SchemaGeneric,
			Hint: "état des lieux à l'entrée du locataire"},
		{Name: "État des lieux de sortie", Category: CategoryLocation, SchemaID: SchemaGeneric,
			Hint: "état des lieux à la sortie du locataire"},
		{Name: "Inventaire du mobilier", Category: CategoryLocation, SchemaID: SchemaGeneric,
			Hint: "liste du mobilier d'un logement loué meublé"},
		{Name: "Contrat de réservation du logement", Category: CategoryVente, SchemaID: SchemaCompromisVente,
			Hint: "contrat préliminaire de vente en l'état futur d'achèvement"},
		{Name: "Acte de vente définitif", Category: CategoryVente, SchemaID: SchemaCompromisVente,
			Hint: "acte authentique de vente signé chez le notaire"},
		{Name: "Extrait du plan cadastral", Category: CategoryVente, SchemaID: SchemaGeneric,
			Hint: "plan cadastral de la parcelle"},
		{Name: "Autre", Category: CategoryAutre, SchemaID: SchemaGeneric,
			Hint: "tout document ne correspondant à aucun autre type"},
	}
}
