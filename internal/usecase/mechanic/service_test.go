package mechanic

import (
	"context"
	"errors"
	"testing"

	"github.com/mecanice/partsense/internal/domain"
)

type mockRepo struct {
	createErr  error
	created    *domain.Mechanic
	lastStatus string
	lastLimit  int
	lastOffset int
	updated    domain.MechanicUpdate
}

func (m *mockRepo) Create(_ context.Context, mech *domain.Mechanic) error {
	if m.createErr != nil {
		return m.createErr
	}
	mech.ID = 1
	m.created = mech
	return nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*domain.Mechanic, error) {
	return &domain.Mechanic{ID: id}, nil
}

func (m *mockRepo) List(_ context.Context, status string, limit, offset int) ([]domain.Mechanic, error) {
	m.lastStatus = status
	m.lastLimit = limit
	m.lastOffset = offset
	return nil, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, upd domain.MechanicUpdate) (*domain.Mechanic, error) {
	m.updated = upd
	return &domain.Mechanic{ID: id}, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id int64, status string) (*domain.Mechanic, error) {
	m.lastStatus = status
	return &domain.Mechanic{ID: id, Status: status}, nil
}

func validMechanic() *domain.Mechanic {
	return &domain.Mechanic{
		Name:              "  Oficina do João  ",
		WhatsappPhoneE164: "+5511999999999",
		City:              "São Paulo",
		StateUF:           "sp",
		Categories:        []string{"Freios", "freios", " Suspensão "},
	}
}

func TestCreate_NormalizesFields(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	created, err := svc.Create(context.Background(), validMechanic())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != "Oficina do João" {
		t.Errorf("name not trimmed: %q", created.Name)
	}
	if created.StateUF != "SP" {
		t.Errorf("uf not upper-cased: %q", created.StateUF)
	}
	if created.Status != domain.MechanicActive {
		t.Errorf("expected default active status, got %q", created.Status)
	}
	if len(created.Categories) != 2 || created.Categories[0] != "freios" || created.Categories[1] != "suspensão" {
		t.Errorf("categories not normalized: %v", created.Categories)
	}
}

func TestCreate_InvalidPhone(t *testing.T) {
	svc := New(&mockRepo{})
	m := validMechanic()
	m.WhatsappPhoneE164 = "11999999999"

	_, err := svc.Create(context.Background(), m)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestCreate_DuplicatePhone(t *testing.T) {
	svc := New(&mockRepo{createErr: domain.ErrDuplicatePhone})

	_, err := svc.Create(context.Background(), validMechanic())
	if !errors.Is(err, domain.ErrDuplicatePhone) {
		t.Fatalf("expected duplicate phone error, got %v", err)
	}
}

func TestList_ClampsLimitAndOffset(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	if _, err := svc.List(context.Background(), "", 0, -3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != defaultListLimit || repo.lastOffset != 0 {
		t.Errorf("expected defaults, got limit=%d offset=%d", repo.lastLimit, repo.lastOffset)
	}

	if _, err := svc.List(context.Background(), "active", 500, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != maxListLimit {
		t.Errorf("expected limit clamped to %d, got %d", maxListLimit, repo.lastLimit)
	}
	if repo.lastStatus != "active" {
		t.Errorf("status filter not forwarded: %q", repo.lastStatus)
	}
}

func TestList_InvalidStatus(t *testing.T) {
	svc := New(&mockRepo{})

	_, err := svc.List(context.Background(), "suspended", 10, 0)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestUpdate_NormalizesProvidedFields(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	uf := "rj"
	cats := []string{" Motor ", "motor"}
	if _, err := svc.Update(context.Background(), 1, domain.MechanicUpdate{
		StateUF:    &uf,
		Categories: &cats,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *repo.updated.StateUF != "RJ" {
		t.Errorf("uf not normalized: %q", *repo.updated.StateUF)
	}
	if got := *repo.updated.Categories; len(got) != 1 || got[0] != "motor" {
		t.Errorf("categories not normalized: %v", got)
	}
	if repo.updated.Name != nil {
		t.Error("untouched fields must stay nil")
	}
}

func TestUpdate_RejectsBadUF(t *testing.T) {
	svc := New(&mockRepo{})

	uf := "XX"
	_, err := svc.Update(context.Background(), 1, domain.MechanicUpdate{StateUF: &uf})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	m, err := svc.SetStatus(context.Background(), 1, domain.MechanicBlocked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != domain.MechanicBlocked {
		t.Errorf("unexpected status: %q", m.Status)
	}

	if _, err := svc.SetStatus(context.Background(), 1, "retired"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
