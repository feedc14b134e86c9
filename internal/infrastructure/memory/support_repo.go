package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

var (
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
	_ repository.UserRepository              = (*userRepo)(nil)
)

// movementRepo guarda la auditoría en orden de llegada; no participa de transacciones.
type movementRepo struct {
	s *Store
}

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	c := *m
	r.s.mu.Lock()
	r.s.movements = append(r.s.movements, &c)
	r.s.mu.Unlock()
	return nil
}

func (r *movementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	r.s.mu.RLock()
	var list []*entity.InventoryMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if m := r.s.movements[i]; m.ProductID == productID {
			c := *m
			list = append(list, &c)
		}
	}
	r.s.mu.RUnlock()
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u := r.s.users[id]
	if u == nil {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func sortByName(list []*entity.Customer) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}
