package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/iota-uz/iota-catalog/internal/server"
	"github.com/iota-uz/iota-catalog/pkg/application"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/configuration"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Catalog maintenance tools",
		SilenceUsage: true,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newReindexCmd())
	cmd.AddCommand(newSearchVersionCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is an application without the HTTP surface.
type session struct {
	conf *configuration.Configuration
	pool *pgxpool.Pool
	app  application.Application
}

func openSession(ctx context.Context) (*session, error) {
	conf := configuration.Use()
	// Commands never hold websocket connections.
	conf.Notifications.Layer = "none"

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, conf.Database.Opts)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	app, err := server.NewApplication(ctx, conf, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &session{conf: conf, pool: pool, app: app}, nil
}

// tenantContext carries the pool and tenant the repositories expect.
func (s *session) tenantContext(ctx context.Context, tenant string) context.Context {
	return composables.WithTenant(composables.WithPool(ctx, s.pool), tenant)
}

func (s *session) Close() {
	_ = s.app.Shutdown()
	s.pool.Close()
	s.conf.Unload()
}
