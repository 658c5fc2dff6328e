// internal/member/service.go
package member

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the member store.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*Member, error)
	Get(ctx context.Context, id uuid.UUID) (*Member, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Member, error)
	List(ctx context.Context, params ListParams) ([]Member, int, error)
	SearchByPhoneTail(ctx context.Context, lastFour string) ([]Member, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
