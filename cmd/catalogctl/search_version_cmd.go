package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/iota-catalog/modules/catalog/services"
)

type searchVersionOutput struct {
	Command string `json:"command"`
	Tenant  string `json:"tenant"`
	Key     string `json:"key"`
	Version int64  `json:"version"`
}

func newSearchVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search-version",
		Short: "Inspect or bump the search cache generation of a tenant",
	}
	cmd.AddCommand(newSearchVersionSubCmd("get", "Print the current generation", false))
	cmd.AddCommand(newSearchVersionSubCmd("bump", "Increment the generation, orphaning cached searches", true))
	return cmd
}

func newSearchVersionSubCmd(use, short string, bump bool) *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := s.tenantContext(cmd.Context(), tenant)
			keys := s.app.Service(services.Deps{}).(*services.Deps).CacheService(tenant)
			var version int64
			if bump {
				version = keys.BumpSearchVersion(ctx)
			} else {
				version = keys.GetSearchVersion(ctx)
			}
			return writeJSON(searchVersionOutput{
				Command: "search-version " + use,
				Tenant:  keys.Tenant(),
				Key:     keys.SearchVersionKey(),
				Version: version,
			})
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant schema name (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
