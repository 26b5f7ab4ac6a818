package composables

import (
	"context"
	"strings"

	"github.com/iota-uz/iota-catalog/pkg/constants"
)

// DefaultTenant is the schema used when no tenant could be resolved.
const DefaultTenant = "public"

func WithTenant(ctx context.Context, schemaName string) context.Context {
	return context.WithValue(ctx, constants.TenantKey, schemaName)
}

// UseTenant returns the schema name resolved for the request, or
// DefaultTenant when none was resolved.
func UseTenant(ctx context.Context) string {
	schema, ok := TryUseTenant(ctx)
	if !ok {
		return DefaultTenant
	}
	return schema
}

func TryUseTenant(ctx context.Context) (string, bool) {
	schema, ok := ctx.Value(constants.TenantKey).(string)
	if !ok || strings.TrimSpace(schema) == "" {
		return "", false
	}
	return schema, true
}
