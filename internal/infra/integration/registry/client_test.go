package registry_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optira-energie/comparateur-api/internal/infra/integration/registry"
)

func registryServer(t *testing.T, results []map[string]interface{}) (*httptest.Server, *int) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSearchShortQuerySkipsNetwork(t *testing.T) {
	srv, calls := registryServer(t, nil)
	client := registry.NewClient(srv.URL)

	matches, err := client.Search(context.Background(), "ab")

	assert.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 0, *calls)
}

func TestSearchShortQueryCountsRunes(t *testing.T) {
	srv, calls := registryServer(t, nil)
	client := registry.NewClient(srv.URL)

	// Four bytes, two characters: still under the three-character gate.
	matches, err := client.Search(context.Background(), "éà")

	assert.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 0, *calls)
}

func TestSearchNormalizesResults(t *testing.T) {
	srv, _ := registryServer(t, []map[string]interface{}{
		{
			"siren":       "913837233",
			"nom_complet": "BOULANGERIE MARTIN",
			"siege": map[string]interface{}{
				"numero_voie":     "12",
				"type_voie":       "RUE",
				"libelle_voie":    "DE LA PAIX",
				"code_postal":     "75002",
				"libelle_commune": "PARIS",
			},
		},
	})
	client := registry.NewClient(srv.URL)

	matches, err := client.Search(context.Background(), "boulangerie")

	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, "913837233", matches[0].Siren)
	assert.Equal(t, "BOULANGERIE MARTIN", matches[0].Name)
	assert.Equal(t, "12 RUE DE LA PAIX, 75002 PARIS", matches[0].Address)
}

func TestSearchNameFallbackChain(t *testing.T) {
	srv, _ := registryServer(t, []map[string]interface{}{
		{"siren": "1", "nom_raison_sociale": "SARL DUPONT"},
		{"siren": "2", "denomination": "SCI DES LILAS"},
		{"siren": "3"},
	})
	client := registry.NewClient(srv.URL)

	matches, err := client.Search(context.Background(), "dupont")

	assert.NoError(t, err)
	assert.Equal(t, "SARL DUPONT", matches[0].Name)
	assert.Equal(t, "SCI DES LILAS", matches[1].Name)
	assert.Equal(t, "Nom non disponible", matches[2].Name)
	assert.Empty(t, matches[2].Address)
}

func TestSearchCapsResults(t *testing.T) {
	results := make([]map[string]interface{}, 8)
	for i := range results {
		results[i] = map[string]interface{}{"siren": "913837233", "nom_complet": "X"}
	}
	srv, _ := registryServer(t, results)
	client := registry.NewClient(srv.URL)

	matches, err := client.Search(context.Background(), "energie")

	assert.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestSearchUpstreamErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	client := registry.NewClient(srv.URL)

	_, err := client.Search(context.Background(), "energie")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
