package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hr-events/hr-events/hrevents/internal/models"
)

var (
	ErrMappingNotFound  = errors.New("identity mapping not found")
	ErrCompanyNotFound  = errors.New("company not found")
	ErrSettingsNotFound = errors.New("settings not found")
)

type Repository interface {
	// Identity mappings (user_meta)
	UpsertIdentityMapping(ctx context.Context, mapping *models.IdentityMapping) (*models.IdentityMapping, error)
	GetIdentityMapping(ctx context.Context, email string) (*models.IdentityMapping, error)
	ListIdentityMappings(ctx context.Context) ([]*models.IdentityMapping, error)

	// HR roster queries (read-only in production)
	ListActiveEmployees(ctx context.Context) ([]*models.Employee, error)
	ListBirthdays(ctx context.Context, month time.Month, day int) ([]*models.Employee, error)
	ListAnniversaries(ctx context.Context, month time.Month, day int, today time.Time) ([]*models.Employee, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)

	// Roster writes used by development seeding
	SaveCompany(ctx context.Context, company *models.Company) error
	SaveEmployee(ctx context.Context, employee *models.Employee) error

	// Singleton settings record
	GetSettings(ctx context.Context) (*models.SettingsRecord, error)
	SaveSettings(ctx context.Context, record *models.SettingsRecord) error

	Ping(ctx context.Context) error
	Close()
}

// dateOnly truncates t to its calendar date in its own location, as UTC midnight.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
