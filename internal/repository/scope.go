package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

// tenantClause returns the WHERE fragment restricting column to the tenant
// stored in ctx, plus its arguments.
//
//   superadmin  -> "1 = 1"           (no filter)
//   tenant T    -> "<column> = ?"    (T)
//   unset       -> "1 = 0"           (nothing is visible)
func tenantClause(ctx context.Context, column string) (string, []any) {
	s := tenant.FromContext(ctx)
	switch {
	case !s.IsSet():
		return "1 = 0", nil
	case s.IsSuperadmin():
		return "1 = 1", nil
	default:
		return column + " = ?", []any{s.ClientID()}
	}
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func uint64Args(ids []uint64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// dedupe drops zero and repeated ids while keeping the first-seen order.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
