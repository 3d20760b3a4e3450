// Package mealdb loads the recipe list from TheMealDB's public search API.
package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"recipebox/models"
)

const DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

type searchResponse struct {
	Meals []RawRecipe `json:"meals"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// FetchAll runs an empty search, which TheMealDB answers with its full listing.
// A null "meals" field is an empty listing, not an error.
func (c *Client) FetchAll(ctx context.Context) ([]RawRecipe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.php?s=", nil)
	if err != nil {
		return nil, fmt.Errorf("mealdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mealdb: get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("mealdb: unexpected status %s", resp.Status)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("mealdb: decode: %w", err)
	}
	return body.Meals, nil
}

// FetchRecipes is FetchAll translated into recipes.
func (c *Client) FetchRecipes(ctx context.Context) ([]models.Recipe, error) {
	raw, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	recipes := make([]models.Recipe, 0, len(raw))
	for _, r := range raw {
		recipes = append(recipes, r.Recipe())
	}
	return recipes, nil
}
