package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/iota-catalog/modules/catalog/services"
)

type reindexOutput struct {
	Command    string `json:"command"`
	Tenant     string `json:"tenant"`
	DurationMS int64  `json:"duration_ms"`
	Indexed    int    `json:"indexed"`
	Failed     int    `json:"failed"`
	Version    int64  `json:"search_version"`
}

func newReindexCmd() *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the product search index of a tenant from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			start := time.Now()
			ctx := s.tenantContext(cmd.Context(), tenant)
			products := s.app.Service(services.ProductService{}).(*services.ProductService)
			report, err := products.Reindex(ctx)
			if err != nil {
				return err
			}
			// Cached searches were computed against the old index.
			deps := s.app.Service(services.Deps{}).(*services.Deps)
			version := deps.CacheService(tenant).BumpSearchVersion(ctx)

			return writeJSON(reindexOutput{
				Command:    "reindex",
				Tenant:     tenant,
				DurationMS: time.Since(start).Milliseconds(),
				Indexed:    report.Indexed,
				Failed:     report.Failed,
				Version:    version,
			})
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant schema name (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
