// internal/rental/service.go
package rental

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for locker and uniform rentals.
type Service interface {
	RentLocker(ctx context.Context, memberID uuid.UUID, lockerNumber int, lockerType string, months int) (*Locker, error)
	ReturnLocker(ctx context.Context, memberID uuid.UUID) error
	RentUniform(ctx context.Context, memberID uuid.UUID, uniformType string, months int) (*Uniform, error)
	ReturnUniform(ctx context.Context, memberID uuid.UUID) error
	AvailableLockers(ctx context.Context) ([]int, error)
}
