package registry

// Upstream shape of recherche-entreprises.api.gouv.fr. Only the fields the
// funnel consumes; the head-office address sits in the nested "siege".
type searchResponse struct {
	Results []entrepriseResult `json:"results"`
}

type entrepriseResult struct {
	Siren            string      `json:"siren"`
	NomComplet       string      `json:"nom_complet"`
	NomRaisonSociale string      `json:"nom_raison_sociale"`
	Denomination     string      `json:"denomination"`
	Siege            siegeResult `json:"siege"`
}

type siegeResult struct {
	NumeroVoie     string `json:"numero_voie"`
	TypeVoie       string `json:"type_voie"`
	LibelleVoie    string `json:"libelle_voie"`
	CodePostal     string `json:"code_postal"`
	LibelleCommune string `json:"libelle_commune"`
}

// CompanyMatch is the normalized shape handed to the funnel client.
type CompanyMatch struct {
	Siren   string `json:"siren"`
	Name    string `json:"name"`
	Address string `json:"address"`
}
