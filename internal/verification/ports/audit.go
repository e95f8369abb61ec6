package ports

import (
	"context"

	"carematch/pkg/platform/audit"
)

// AuditPort records attributable admin decisions. Fail-closed.
type AuditPort interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// OpsTracker records routine pipeline activity. Best effort.
type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}
