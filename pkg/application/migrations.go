package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SchemaScope int

const (
	// PublicScope schemas hold cross-tenant tables (the tenant registry).
	PublicScope SchemaScope = iota
	// TenantScope schemas are applied to every tenant schema.
	TenantScope
)

type MigrationManager interface {
	RegisterSchema(scope SchemaScope, fs ...*embed.FS)
	ApplyPublic(ctx context.Context, pool *pgxpool.Pool) error
	ApplyTenant(ctx context.Context, pool *pgxpool.Pool, schemaName string) error
}

type migrationManager struct {
	schemas map[SchemaScope][]*embed.FS
}

func NewMigrationManager() MigrationManager {
	return &migrationManager{schemas: make(map[SchemaScope][]*embed.FS)}
}

func (m *migrationManager) RegisterSchema(scope SchemaScope, fs ...*embed.FS) {
	m.schemas[scope] = append(m.schemas[scope], fs...)
}

func (m *migrationManager) ApplyPublic(ctx context.Context, pool *pgxpool.Pool) error {
	return m.apply(ctx, pool, "public", PublicScope)
}

// ApplyTenant creates schemaName when missing and applies every tenant
// scoped schema file inside it.
func (m *migrationManager) ApplyTenant(ctx context.Context, pool *pgxpool.Pool, schemaName string) error {
	return m.apply(ctx, pool, schemaName, TenantScope)
}

func (m *migrationManager) apply(ctx context.Context, pool *pgxpool.Pool, schemaName string, scope SchemaScope) error {
	statements, err := m.collect(scope)
	if err != nil {
		return err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ident := pgx.Identifier{schemaName}.Sanitize()
	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
		return fmt.Errorf("create schema %s: %w", schemaName, err)
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('search_path', $1, true)", ident); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("apply %s to %s: %w", stmt.name, schemaName, err)
		}
	}
	return tx.Commit(ctx)
}

type schemaFile struct {
	name string
	sql  string
}

func (m *migrationManager) collect(scope SchemaScope) ([]schemaFile, error) {
	var files []schemaFile
	for _, fsys := range m.schemas[scope] {
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			content, err := fsys.ReadFile(path)
			if err != nil {
				return err
			}
			files = append(files, schemaFile{name: path, sql: string(content)})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error reading schema files: %w", err)
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}
