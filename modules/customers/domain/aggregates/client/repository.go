package client

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("client not found")
	ErrDomainTaken = errors.New("domain already assigned")
)

// Repository reads and writes the shared (public schema) tenant registry.
type Repository interface {
	GetByDomain(ctx context.Context, domain string) (Client, error)
	GetBySchemaName(ctx context.Context, schemaName string) (Client, error)
	List(ctx context.Context) ([]Client, error)
	Create(ctx context.Context, c Client) (Client, error)
}
