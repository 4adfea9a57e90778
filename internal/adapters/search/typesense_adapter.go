package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	tsclient "github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/typesense"
	"github.com/estimaihq/takeoff-backend/pkg/utils"
)

// StandardSearchParams describes a full-text search over indexed standards
type StandardSearchParams struct {
	Query      string
	Discipline entities.Discipline
	Category   entities.Category
	Limit      int
	Offset     int
}

// TypesenseAdapter indexes and searches construction standards in Typesense
type TypesenseAdapter struct {
	client     *tsclient.Client
	normalizer *utils.MaterialNormalizer
}

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// NewTypesenseAdapterWithNormalizer additionally indexes an
// abbreviation-expanded copy of each record's content, so a search for
// "manhole" matches records that only say "MH".
func NewTypesenseAdapterWithNormalizer(client *tsclient.Client, normalizer *utils.MaterialNormalizer) *TypesenseAdapter {
	return &TypesenseAdapter{client: client, normalizer: normalizer}
}

// Index upserts a standard record into the search collection
func (a *TypesenseAdapter) Index(ctx context.Context, record *entities.StandardRecord) error {
	document := map[string]interface{}{
		"id":         strconv.Itoa(record.ID),
		"content":    record.Content,
		"discipline": string(record.Discipline),
		"category":   string(record.Category),
		"source":     record.Source,
		"reference":  record.Reference,
		"record_id":  record.ID,
	}

	if a.normalizer != nil {
		document["content_expanded"] = a.normalizer.ExpandAbbreviations(record.Content)
	}

	_, err := a.client.Client().Collection(tsclient.StandardsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index standard record: %w", err)
	}

	return nil
}

// IndexBatch upserts multiple standard records
func (a *TypesenseAdapter) IndexBatch(ctx context.Context, records []entities.StandardRecord) error {
	for i := range records {
		if err := a.Index(ctx, &records[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a standard record from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id int) error {
	_, err := a.client.Client().Collection(tsclient.StandardsCollection).Document(strconv.Itoa(id)).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete standard record from index: %w", err)
	}
	return nil
}

// Search runs a full-text search over indexed standards
func (a *TypesenseAdapter) Search(ctx context.Context, params StandardSearchParams) ([]entities.StandardRecord, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(params.Query),
		QueryBy: pointer.String("content,content_expanded"),
		Page:    pointer.Int(params.Offset/limit + 1),
		PerPage: pointer.Int(limit),
	}

	if filter := buildFilter(params); filter != "" {
		searchParams.FilterBy = pointer.String(filter)
	}

	result, err := a.client.Client().Collection(tsclient.StandardsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search standards: %w", err)
	}

	records := []entities.StandardRecord{}
	if result.Hits == nil {
		return records, nil
	}

	for _, hit := range *result.Hits {
		doc := *hit.Document

		record := entities.StandardRecord{}
		if val, ok := doc["record_id"].(float64); ok {
			record.ID = int(val)
		}
		if val, ok := doc["content"].(string); ok {
			record.Content = val
		}
		if val, ok := doc["discipline"].(string); ok {
			record.Discipline = entities.Discipline(val)
		}
		if val, ok := doc["category"].(string); ok {
			record.Category = entities.Category(val)
		}
		if val, ok := doc["source"].(string); ok {
			record.Source = val
		}
		if val, ok := doc["reference"].(string); ok {
			record.Reference = val
		}

		records = append(records, record)
	}

	return records, nil
}

func buildFilter(params StandardSearchParams) string {
	var clauses []string
	if params.Discipline != "" && params.Discipline != entities.DisciplineGeneral {
		clauses = append(clauses, fmt.Sprintf("discipline:=[%s, %s]", params.Discipline, entities.DisciplineGeneral))
	}
	if params.Category != "" {
		clauses = append(clauses, fmt.Sprintf("category:=%s", params.Category))
	}
	return strings.Join(clauses, " && ")
}
