// Package search holds the search engine backends behind the product
// search service.
package search

import (
	"context"
	"errors"
	"fmt"
)

// RefreshMode controls read-after-write visibility of index writes.
type RefreshMode string

const (
	RefreshNone    RefreshMode = ""
	RefreshTrue    RefreshMode = "true"
	RefreshFalse   RefreshMode = "false"
	RefreshWaitFor RefreshMode = "wait_for"
)

var ErrIndexExists = errors.New("search: index already exists")

// Mapping is the properties block of an index mapping.
type Mapping map[string]any

type Hit struct {
	ID    string
	Score float64
}

type Backend interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	// CreateIndex returns ErrIndexExists when the index was created concurrently.
	CreateIndex(ctx context.Context, index string, mapping Mapping) error
	Upsert(ctx context.Context, index, id string, doc any, refresh RefreshMode) error
	Delete(ctx context.Context, index, id string, refresh RefreshMode) error
	// Query returns at most limit hits ordered by score descending. fields
	// accept the name^boost notation.
	Query(ctx context.Context, index, text string, fields []string, limit int) ([]Hit, error)
}

// ResponseError is an error payload returned by the search engine.
type ResponseError struct {
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("search: status %d", e.Status)
	}
	return fmt.Sprintf("search: status %d: %s: %s", e.Status, e.Type, e.Reason)
}
