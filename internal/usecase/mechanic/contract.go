package mechanic

import (
	"context"

	"github.com/mecanice/partsense/internal/domain"
)

// Repository defines the storage contract for mechanic records.
type Repository interface {
	Create(ctx context.Context, m *domain.Mechanic) error
	Get(ctx context.Context, id int64) (*domain.Mechanic, error)
	List(ctx context.Context, status string, limit, offset int) ([]domain.Mechanic, error)
	Update(ctx context.Context, id int64, upd domain.MechanicUpdate) (*domain.Mechanic, error)
	SetStatus(ctx context.Context, id int64, status string) (*domain.Mechanic, error)
}
