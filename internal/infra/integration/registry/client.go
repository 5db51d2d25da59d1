package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultBaseURL = "https://recherche-entreprises.api.gouv.fr"

	// Autocomplete aid, not mandatory input: a slow registry is treated
	// like a failed one.
	requestTimeout = 10 * time.Second

	maxResults = 5

	fallbackName = "Nom non disponible"
)

// Client queries the public business registry. Unauthenticated, best
// effort, no SLA assumed.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Search forwards a free-text or SIREN query and normalizes the hits. A
// query under 3 characters returns empty without touching the network.
// At most 5 matches come back, in upstream ranking order.
func (c *Client) Search(ctx context.Context, query string) ([]CompanyMatch, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 3 {
		return []CompanyMatch{}, nil
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&per_page=%d", c.baseURL, url.QueryEscape(query), maxResults)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "OptiraComparateur/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("registry responded with status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}

	matches := make([]CompanyMatch, 0, maxResults)
	for _, r := range body.Results {
		if len(matches) == maxResults {
			break
		}
		matches = append(matches, CompanyMatch{
			Siren:   r.Siren,
			Name:    displayName(r),
			Address: addressLine(r.Siege),
		})
	}

	return matches, nil
}

// displayName falls through the possible upstream name fields.
func displayName(r entrepriseResult) string {
	for _, name := range []string{r.NomComplet, r.NomRaisonSociale, r.Denomination} {
		if strings.TrimSpace(name) != "" {
			return name
		}
	}
	return fallbackName
}

// addressLine assembles "numero type libelle, code_postal commune".
func addressLine(s siegeResult) string {
	street := joinNonEmpty(" ", s.NumeroVoie, s.TypeVoie, s.LibelleVoie)
	town := joinNonEmpty(" ", s.CodePostal, s.LibelleCommune)
	return joinNonEmpty(", ", street, town)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
