package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

const (
	// DefaultSize is the hit count returned when the caller does not ask
	// for one.
	DefaultSize = 10
	// MaxSize caps a single query's hit count.
	MaxSize = 100
)

// Hit is one matching post with its relevance score.
type Hit struct {
	PostDocument
	Score float64 `json:"score"`
}

// Results is a ranked page of matching posts.
type Results struct {
	Total int64 `json:"total"`
	Hits  []Hit `json:"hits"`
}

// searchResponse mirrors the Elasticsearch search API response shape.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64      `json:"_score"`
			Source PostDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchPosts runs a full-text query over post content and thread titles,
// ranked by relevance.
func (s *Service) SearchPosts(ctx context.Context, query string, size int) (*Results, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"content", "thread_title"},
			},
		},
		"size": size,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling search query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("error executing search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var decoded searchResponse
	if decodeErr := json.NewDecoder(res.Body).Decode(&decoded); decodeErr != nil {
		return nil, fmt.Errorf("error decoding search response: %w", decodeErr)
	}

	results := &Results{
		Total: decoded.Hits.Total.Value,
		Hits:  make([]Hit, 0, len(decoded.Hits.Hits)),
	}
	for _, hit := range decoded.Hits.Hits {
		results.Hits = append(results.Hits, Hit{
			PostDocument: hit.Source,
			Score:        hit.Score,
		})
	}
	return results, nil
}
