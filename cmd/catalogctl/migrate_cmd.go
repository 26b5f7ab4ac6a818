package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/iota-catalog/modules/customers/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

type migrateOutput struct {
	Command    string   `json:"command"`
	DurationMS int64    `json:"duration_ms"`
	Schemas    []string `json:"schemas"`
}

func newMigrateCmd() *cobra.Command {
	var tenants []string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to the public schema and every tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			start := time.Now()
			ctx := composables.WithPool(cmd.Context(), s.pool)
			migrations := s.app.Migrations()
			if err := migrations.ApplyPublic(ctx, s.pool); err != nil {
				return err
			}

			schemas := tenants
			if len(schemas) == 0 {
				clients, err := persistence.NewClientRepository().List(ctx)
				if err != nil {
					return err
				}
				schemas = append(schemas, s.conf.Tenancy.PublicSchema)
				for _, c := range clients {
					if c.SchemaName() != s.conf.Tenancy.PublicSchema {
						schemas = append(schemas, c.SchemaName())
					}
				}
			}
			for _, schema := range schemas {
				if err := migrations.ApplyTenant(ctx, s.pool, schema); err != nil {
					return err
				}
			}
			return writeJSON(migrateOutput{
				Command:    "migrate",
				DurationMS: time.Since(start).Milliseconds(),
				Schemas:    schemas,
			})
		},
	}

	cmd.Flags().StringSliceVar(&tenants, "tenant", nil, "Tenant schema to migrate (repeatable, default: every registered tenant)")
	return cmd
}
