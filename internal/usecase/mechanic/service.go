// Package mechanic manages the admin-maintained workshop directory.
package mechanic

import (
	"context"
	"fmt"
	"strings"

	"github.com/mecanice/partsense/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Service validates and persists mechanic records.
type Service struct {
	repo Repository
}

// New creates a mechanic service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create normalizes and stores a new mechanic.
func (s *Service) Create(ctx context.Context, m *domain.Mechanic) (*domain.Mechanic, error) {
	if err := m.Normalize(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get fetches a mechanic by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Mechanic, error) {
	return s.repo.Get(ctx, id)
}

// List returns mechanics, newest first. limit is clamped to 1..100 and a
// non-empty status filter must be a known status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]domain.Mechanic, error) {
	if status != "" && !domain.ValidMechanicStatus(status) {
		return nil, fmt.Errorf("%w: status must be active or blocked", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, status, limit, offset)
}

// Update applies a partial update after normalizing the provided fields.
func (s *Service) Update(ctx context.Context, id int64, upd domain.MechanicUpdate) (*domain.Mechanic, error) {
	if err := normalizeUpdate(&upd); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, upd)
}

// SetStatus switches a mechanic between active and blocked.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*domain.Mechanic, error) {
	if !domain.ValidMechanicStatus(status) {
		return nil, fmt.Errorf("%w: status must be active or blocked", domain.ErrInvalidInput)
	}
	return s.repo.SetStatus(ctx, id, status)
}

func normalizeUpdate(upd *domain.MechanicUpdate) error {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if len(name) < 2 || len(name) > 120 {
			return fmt.Errorf("%w: name must be 2..120 characters", domain.ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.WhatsappPhoneE164 != nil {
		phone, err := domain.NormalizePhoneE164(*upd.WhatsappPhoneE164)
		if err != nil {
			return err
		}
		upd.WhatsappPhoneE164 = &phone
	}
	if upd.City != nil {
		city := strings.TrimSpace(*upd.City)
		if len(city) < 2 || len(city) > 80 {
			return fmt.Errorf("%w: city must be 2..80 characters", domain.ErrInvalidInput)
		}
		upd.City = &city
	}
	if upd.StateUF != nil {
		uf, err := domain.NormalizeUF(*upd.StateUF)
		if err != nil {
			return err
		}
		upd.StateUF = &uf
	}
	if upd.Status != nil && !domain.ValidMechanicStatus(*upd.Status) {
		return fmt.Errorf("%w: status must be active or blocked", domain.ErrInvalidInput)
	}
	if upd.Categories != nil {
		cats := domain.NormalizeCategories(*upd.Categories)
		upd.Categories = &cats
	}
	return nil
}
