package search

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"

	"real-estate-marketplace/internal/database"
	"real-estate-marketplace/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

// LocationIndex is a Meilisearch index of suggestion entries
type LocationIndex struct {
	client *meilisearch.Client
	index  string
}

// locationDocument is the indexed form of a Suggestion
type locationDocument struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label"`
}

func NewLocationIndex(host, apiKey string) *LocationIndex {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &LocationIndex{
		client: client,
		index:  "locations",
	}
}

// InitIndex initializes the Meilisearch index
func (l *LocationIndex) InitIndex() error {
	// Create index if it doesn't exist
	_, err := l.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        l.index,
		PrimaryKey: "id",
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create %s index: %w", l.index, err)
	}

	_, err = l.client.Index(l.index).UpdateSearchableAttributes(&[]string{
		"value",
		"label",
	})
	if err != nil {
		return fmt.Errorf("failed to configure searchable attributes: %w", err)
	}

	_, err = l.client.Index(l.index).UpdateFilterableAttributes(&[]string{
		"type",
	})
	if err != nil {
		return fmt.Errorf("failed to configure filterable attributes: %w", err)
	}

	return nil
}

// Reindex replaces the index contents with the given locations and every property type
func (l *LocationIndex) Reindex(locations []database.Location) (int, error) {
	docs := buildLocationDocuments(locations)

	if _, err := l.client.Index(l.index).DeleteAllDocuments(); err != nil {
		return 0, fmt.Errorf("failed to clear %s index: %w", l.index, err)
	}
	if _, err := l.client.Index(l.index).AddDocuments(docs, "id"); err != nil {
		return 0, fmt.Errorf("failed to index locations: %w", err)
	}
	return len(docs), nil
}

// Suggest searches the index for entries matching q
func (l *LocationIndex) Suggest(_ context.Context, q string, limit int) ([]Suggestion, error) {
	q = strings.TrimSpace(q)
	if len(q) < minSuggestQueryLen || limit <= 0 {
		return []Suggestion{}, nil
	}

	res, err := l.client.Index(l.index).Search(q, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(res.Hits))
	for _, hit := range res.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, Suggestion{
			Type:  getString(hitMap, "type"),
			Value: getString(hitMap, "value"),
			Label: getString(hitMap, "label"),
		})
	}
	return out, nil
}

func buildLocationDocuments(locations []database.Location) []locationDocument {
	docs := make([]locationDocument, 0, len(locations)*2+len(models.PropertyTypes))
	seenStates := make(map[string]bool)

	for _, loc := range locations {
		s := citySuggestion(loc.City, loc.State)
		docs = append(docs, newLocationDocument(s))

		if loc.State != "" && !seenStates[loc.State] {
			seenStates[loc.State] = true
			docs = append(docs, newLocationDocument(Suggestion{Type: SuggestionState, Value: loc.State, Label: loc.State}))
		}
	}

	for _, t := range models.PropertyTypes {
		docs = append(docs, newLocationDocument(Suggestion{
			Type:  SuggestionPropertyType,
			Value: string(t),
			Label: propertyTypeLabel(t),
		}))
	}
	return docs
}

func newLocationDocument(s Suggestion) locationDocument {
	return locationDocument{
		ID:    generateMD5(s.Type + "|" + s.Label),
		Type:  s.Type,
		Value: s.Value,
		Label: s.Label,
	}
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// generateMD5 generates MD5 hash for a string
func generateMD5(text string) string {
	hash := md5.Sum([]byte(text))
	return fmt.Sprintf("%x", hash)
}
