package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/threadsync/internal/config"
	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/logger"
)

// DefaultTimeout bounds index and search calls when the configuration does
// not set one.
const DefaultTimeout = 10 * time.Second

// PostDocument is the indexed shape of one post. Documents are keyed by
// thread UUID and post ID so re-syncing a thread overwrites in place.
type PostDocument struct {
	ThreadUUID    string `json:"thread_uuid"`
	ThreadURL     string `json:"thread_url"`
	ThreadTitle   string `json:"thread_title"`
	PostID        string `json:"post_id"`
	AuthorName    string `json:"author_name"`
	Floor         int    `json:"floor"`
	PostedAt      int64  `json:"posted_at"`
	Content       string `json:"content"`
	ReactionCount int    `json:"reaction_count"`
}

// postMapping is the index mapping for post documents.
var postMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"thread_uuid":    map[string]any{"type": "keyword"},
			"thread_url":     map[string]any{"type": "keyword"},
			"thread_title":   map[string]any{"type": "text"},
			"post_id":        map[string]any{"type": "keyword"},
			"author_name":    map[string]any{"type": "keyword"},
			"floor":          map[string]any{"type": "integer"},
			"posted_at":      map[string]any{"type": "date", "format": "epoch_millis"},
			"content":        map[string]any{"type": "text"},
			"reaction_count": map[string]any{"type": "integer"},
		},
	},
}

// Params contains dependencies for creating the search service.
type Params struct {
	Client    *es.Client
	IndexName string
	Timeout   time.Duration
	Logger    logger.Interface
}

// Service indexes and queries post content.
type Service struct {
	client  *es.Client
	index   string
	timeout time.Duration
	logger  logger.Interface
}

// NewService creates a search service over an existing client.
func NewService(p Params) (*Service, error) {
	if p.Client == nil {
		return nil, errors.New("elasticsearch client is required")
	}
	if p.IndexName == "" {
		return nil, errors.New("index name is required")
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		client:  p.Client,
		index:   p.IndexName,
		timeout: timeout,
		logger:  p.Logger,
	}, nil
}

// NewServiceFromConfig builds the client and service in one step.
func NewServiceFromConfig(cfg *config.SearchConfig, log logger.Interface) (*Service, error) {
	client, err := NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewService(Params{
		Client:    client,
		IndexName: cfg.IndexName,
		Timeout:   cfg.Timeout,
		Logger:    log,
	})
}

// EnsureIndex creates the post index with its mapping when it does not
// already exist.
func (s *Service) EnsureIndex(ctx context.Context) error {
	exists, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body, err := json.Marshal(postMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	res, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	s.logger.Info("Created search index", "index", s.index)
	return nil
}

// indexExists checks whether the post index exists.
func (s *Service) indexExists(ctx context.Context) (bool, error) {
	res, err := s.client.Indices.Exists(
		[]string{s.index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}

// IndexPosts mirrors written posts into the content index. It satisfies the
// orchestrator's indexer hook; callers treat failures as non-fatal.
func (s *Service) IndexPosts(ctx context.Context, thread *domain.Thread, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for i := range posts {
		if err := s.indexPost(ctx, thread, &posts[i]); err != nil {
			return err
		}
	}

	s.logger.Debug("Indexed posts", "index", s.index, "thread_uuid", thread.UUID, "count", len(posts))
	return nil
}

func (s *Service) indexPost(ctx context.Context, thread *domain.Thread, post *domain.Post) error {
	doc := PostDocument{
		ThreadUUID:    thread.UUID,
		ThreadURL:     thread.URL,
		ThreadTitle:   thread.Title,
		PostID:        post.PostID,
		AuthorName:    post.AuthorName,
		Floor:         post.Floor,
		PostedAt:      post.PostedAt,
		Content:       post.ContentText,
		ReactionCount: post.ReactionCount,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal post document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(thread.UUID+":"+post.PostID),
	)
	if err != nil {
		return fmt.Errorf("failed to index post %s: %w", post.PostID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error indexing post %s: %s", post.PostID, res.String())
	}

	return nil
}
