package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// IndexUsers is the profile index.
const IndexUsers = "users"

// Client wraps the Elasticsearch client with the profile index operations
type Client struct {
	es *elasticsearch.Client
}

// NewClient connects to the cluster at url. Requests are traced through otelhttp.
func NewClient(url string) (*Client, error) {
	if url == "" {
		url = "http://localhost:9200"
	}

	cfg := elasticsearch.Config{
		Addresses: []string{url},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	res.Body.Close()

	return &Client{es: es}, nil
}

// Ping checks the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// InitializeIndices creates the users index if it is missing
func (c *Client) InitializeIndices(ctx context.Context) error {
	if err := c.createIndex(ctx, IndexUsers, usersMapping()); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	return nil
}

func usersMapping() map[string]interface{} {
	text := map[string]interface{}{"type": "text", "analyzer": "standard"}
	keyword := map[string]interface{}{"type": "keyword"}
	textWithKeyword := map[string]interface{}{
		"type":     "text",
		"analyzer": "standard",
		"fields": map[string]interface{}{
			"keyword": map[string]interface{}{
				"type":       "keyword",
				"normalizer": "lowercase",
			},
		},
	}

	return map[string]interface{}{
		"settings": map[string]interface{}{
			"analysis": map[string]interface{}{
				"normalizer": map[string]interface{}{
					"lowercase": map[string]interface{}{
						"type":   "custom",
						"filter": []string{"lowercase"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":         keyword,
				"email":      textWithKeyword,
				"username":   textWithKeyword,
				"first_name": textWithKeyword,
				"last_name":  textWithKeyword,
				"bio":        text,
				"city":       textWithKeyword,
				"country":    textWithKeyword,
				"role":       keyword,
				"sports": map[string]interface{}{
					"type":       "keyword",
					"normalizer": "lowercase",
				},
				"level":      keyword,
				"verified":   map[string]interface{}{"type": "boolean"},
				"created_at": map[string]interface{}{"type": "date"},
			},
		},
	}
}

func (c *Client) createIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error {
	res, err := c.es.Indices.Exists([]string{indexName}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(indexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(mappingJSON)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("creating index", res.Status(), res.Body)
	}
	return nil
}

// IndexUser writes the profile document for u.
func (c *Client) IndexUser(ctx context.Context, u *models.User) error {
	body, err := json.Marshal(UserToSearchDoc(u))
	if err != nil {
		return fmt.Errorf("failed to marshal user document: %w", err)
	}

	res, err := c.es.Index(IndexUsers, bytes.NewReader(body),
		c.es.Index.WithDocumentID(u.ID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index user: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("indexing user", res.Status(), res.Body)
	}
	return nil
}

// DeleteUser removes a profile document. A missing document is not an error.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	res, err := c.es.Delete(IndexUsers, userID, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("deleting user", res.Status(), res.Body)
	}
	return nil
}

// SearchProfiles runs filter against the users index and returns the matching
// ids in rank order plus the total hit count.
func (c *Client) SearchProfiles(ctx context.Context, filter repository.SearchFilter) ([]string, int64, error) {
	queryJSON, err := json.Marshal(BuildProfileQuery(filter))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(IndexUsers),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, responseError("searching users", res.Status(), res.Body)
	}

	var searchResp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]string, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, searchResp.Hits.Total.Value, nil
}

// BuildProfileQuery translates a profile filter into a bool query. Text
// filters are case-insensitive substring matches, like the database path.
func BuildProfileQuery(filter repository.SearchFilter) map[string]interface{} {
	var must, filters, mustNot []interface{}

	switch {
	case filter.Athletes:
		filters = append(filters, term("role", models.RolePlayer))
	case filter.Role != "":
		filters = append(filters, term("role", filter.Role))
	default:
		mustNot = append(mustNot, term("role", models.RolePlayer))
		filters = append(filters, map[string]interface{}{"exists": map[string]interface{}{"field": "role"}})
	}

	if q := strings.TrimSpace(filter.SearchTerm); q != "" {
		should := []interface{}{}
		for _, field := range []string{"first_name.keyword", "last_name.keyword", "email.keyword", "username.keyword"} {
			should = append(should, wildcard(field, q))
		}
		should = append(should, map[string]interface{}{
			"match_phrase_prefix": map[string]interface{}{"bio": q},
		})
		must = append(must, map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
			},
		})
	}
	if filter.City != "" {
		filters = append(filters, wildcard("city.keyword", filter.City))
	}
	if filter.Country != "" {
		filters = append(filters, wildcard("country.keyword", filter.Country))
	}
	if filter.Verified {
		filters = append(filters, term("verified", true))
	}
	if filter.Sport != "" {
		filters = append(filters, term("sports", strings.ToLower(filter.Sport)))
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(mustNot) > 0 {
		boolQuery["must_not"] = mustNot
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"from":  filter.Offset,
		"size":  filter.Limit,
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
		"_source": false,
	}
}

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

func wildcard(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{
				"value":            "*" + escapeWildcard(strings.ToLower(value)) + "*",
				"case_insensitive": true,
			},
		},
	}
}

func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`).Replace(s)
}

func responseError(action, status string, body io.Reader) error {
	var errResp map[string]interface{}
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return fmt.Errorf("error response [%s]", status)
	}
	return fmt.Errorf("error %s: [%s] %v", action, status, errResp["error"])
}
