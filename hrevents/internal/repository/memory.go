package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hr-events/hr-events/hrevents/internal/models"
)

type InMemoryRepository struct {
	mappings  map[string]*models.IdentityMapping
	employees map[string]*models.Employee
	companies map[string]*models.Company
	settings  *models.SettingsRecord
	now       func() time.Time
	mu        sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		mappings:  make(map[string]*models.IdentityMapping),
		employees: make(map[string]*models.Employee),
		companies: make(map[string]*models.Company),
		now:       time.Now,
	}
}

func (r *InMemoryRepository) Close() {}

func (r *InMemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *InMemoryRepository) UpsertIdentityMapping(ctx context.Context, mapping *models.IdentityMapping) (*models.IdentityMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	existing, ok := r.mappings[mapping.User]
	if !ok {
		existing = &models.IdentityMapping{User: mapping.User, CreatedAt: now}
		r.mappings[mapping.User] = existing
	}
	existing.SlackUserID = mapping.SlackUserID
	existing.SlackUsername = mapping.SlackUsername
	existing.UpdatedAt = now

	cp := *existing
	return &cp, nil
}

func (r *InMemoryRepository) GetIdentityMapping(ctx context.Context, email string) (*models.IdentityMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.mappings[email]
	if !ok {
		return nil, ErrMappingNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *InMemoryRepository) ListIdentityMappings(ctx context.Context) ([]*models.IdentityMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mappings := make([]*models.IdentityMapping, 0, len(r.mappings))
	for _, m := range r.mappings {
		cp := *m
		mappings = append(mappings, &cp)
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].User < mappings[j].User })
	return mappings, nil
}

func (r *InMemoryRepository) ListActiveEmployees(ctx context.Context) ([]*models.Employee, error) {
	return r.filterEmployees(func(e *models.Employee) bool { return true }), nil
}

func (r *InMemoryRepository) ListBirthdays(ctx context.Context, month time.Month, day int) ([]*models.Employee, error) {
	return r.filterEmployees(func(e *models.Employee) bool {
		return e.DateOfBirth != nil && e.DateOfBirth.Month() == month && e.DateOfBirth.Day() == day
	}), nil
}

func (r *InMemoryRepository) ListAnniversaries(ctx context.Context, month time.Month, day int, today time.Time) ([]*models.Employee, error) {
	t := dateOnly(today)
	return r.filterEmployees(func(e *models.Employee) bool {
		if e.DateOfJoining == nil {
			return false
		}
		j := *e.DateOfJoining
		return j.Month() == month && j.Day() == day && !dateOnly(j).Equal(t)
	}), nil
}

// filterEmployees returns active employees matching keep, ordered by id.
func (r *InMemoryRepository) filterEmployees(keep func(*models.Employee) bool) []*models.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Employee
	for _, e := range r.employees {
		if !e.IsActive() || !keep(e) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *InMemoryRepository) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *InMemoryRepository) SaveCompany(ctx context.Context, company *models.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *company
	r.companies[company.ID] = &cp
	return nil
}

func (r *InMemoryRepository) SaveEmployee(ctx context.Context, employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *employee
	r.employees[employee.ID] = &cp
	return nil
}

func (r *InMemoryRepository) GetSettings(ctx context.Context) (*models.SettingsRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.settings == nil {
		return nil, ErrSettingsNotFound
	}
	cp := *r.settings
	return &cp, nil
}

func (r *InMemoryRepository) SaveSettings(ctx context.Context, record *models.SettingsRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *record
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = r.now().UTC()
	}
	r.settings = &cp
	return nil
}
