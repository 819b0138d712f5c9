package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	tsclient "github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/typesense"
)

const (
	suggestQueryBy  = "name,address,city,postal_code"
	importBatchSize = 100
)

// TypesenseAdapter implements location suggestions and indexing using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.LocationSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Suggest runs a prefix search over name, address, city and postcode
func (a *TypesenseAdapter) Suggest(ctx context.Context, query string, limit int) ([]*entities.LocationSuggestion, error) {
	if limit <= 0 {
		limit = 10
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String(suggestQueryBy),
		PerPage: pointer.Int(limit),
		Page:    pointer.Int(1),
	}

	result, err := a.client.Client().Collection(tsclient.LocationsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search locations: %w", err)
	}

	suggestions := []*entities.LocationSuggestion{}
	if result.Hits == nil {
		return suggestions, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if s := suggestionFromDocument(*hit.Document); s != nil {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}

// Index upserts a single location
func (a *TypesenseAdapter) Index(ctx context.Context, location *entities.Location) error {
	return a.BulkIndex(ctx, []*entities.Location{location})
}

// BulkIndex upserts locations using the import endpoint
func (a *TypesenseAdapter) BulkIndex(ctx context.Context, locations []*entities.Location) error {
	if len(locations) == 0 {
		return nil
	}

	documents := make([]interface{}, 0, len(locations))
	for _, location := range locations {
		documents = append(documents, LocationDocument(location))
	}

	action := string(api.Upsert)
	params := &api.ImportDocumentsParams{
		Action:    &action,
		BatchSize: pointer.Int(importBatchSize),
	}

	responses, err := a.client.Client().Collection(tsclient.LocationsCollection).Documents().Import(ctx, documents, params)
	if err != nil {
		return fmt.Errorf("failed to import locations: %w", err)
	}

	failed := 0
	var firstErr string
	for _, resp := range responses {
		if resp != nil && !resp.Success {
			if failed == 0 {
				firstErr = resp.Error
			}
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to index %d of %d locations: %s", failed, len(locations), firstErr)
	}
	return nil
}

// Delete removes a location from index
func (a *TypesenseAdapter) Delete(ctx context.Context, id int64) error {
	_, err := a.client.Client().Collection(tsclient.LocationsCollection).Document(strconv.FormatInt(id, 10)).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete location from index: %w", err)
	}
	return nil
}

// LocationDocument builds the Typesense document for a location
func LocationDocument(location *entities.Location) map[string]interface{} {
	doc := map[string]interface{}{
		"id":              strconv.FormatInt(location.ID, 10),
		"slug":            location.Slug,
		"name":            location.Name,
		"address":         location.Address,
		"city":            location.City,
		"postal_code":     location.PostalCode,
		"location":        []float64{location.Latitude, location.Longitude},
		"reviews_count":   location.ReviewsCount,
		"business_status": location.BusinessStatus,
	}
	if location.Rating != nil {
		doc["rating"] = *location.Rating
	}
	return doc
}

func suggestionFromDocument(doc map[string]interface{}) *entities.LocationSuggestion {
	idStr, _ := doc["id"].(string)
	id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil {
		return nil
	}

	str := func(key string) string {
		v, _ := doc[key].(string)
		return v
	}

	return &entities.LocationSuggestion{
		ID:         id,
		Slug:       str("slug"),
		Name:       str("name"),
		Address:    str("address"),
		City:       str("city"),
		PostalCode: str("postal_code"),
	}
}
