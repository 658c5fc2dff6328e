// internal/quarantine/service.go
package quarantine

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the soft-delete lifecycle.
type Service interface {
	// SoftDelete snapshots the member into quarantine and deactivates the
	// member row. Idempotent: deleting an already-quarantined member
	// refreshes its deleted_at rather than duplicating the snapshot.
	SoftDelete(ctx context.Context, memberID uuid.UUID) error
	// Restore reactivates the member from its snapshot and removes the
	// quarantine row, atomically.
	Restore(ctx context.Context, memberID uuid.UUID) error
	// Purge permanently deletes both the quarantine row and the member row.
	Purge(ctx context.Context, memberID uuid.UUID) error
	// RestoreAll restores every quarantined member, returning the count.
	RestoreAll(ctx context.Context) (int, error)
	// PurgeExpired purges every record past the retention window,
	// returning the count. Per-row failures are logged, not fatal.
	PurgeExpired(ctx context.Context) (int, error)
	List(ctx context.Context, page, size int, search string) ([]Record, int, error)
	// IsQuarantined reports whether the member has a quarantine record.
	IsQuarantined(ctx context.Context, memberID uuid.UUID) (bool, error)
	// PhoneTailQuarantined reports whether any quarantined member's phone
	// number ends with the given digits.
	PhoneTailQuarantined(ctx context.Context, lastFour string) (bool, error)
}
