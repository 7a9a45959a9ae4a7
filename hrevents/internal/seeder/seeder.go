// Package seeder generates fake HR companies and employees for development
// databases, with a share of them celebrating on a chosen day.
package seeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hr-events/hr-events/hrevents/internal/models"
)

// RosterWriter persists generated HR records.
type RosterWriter interface {
	SaveCompany(ctx context.Context, company *models.Company) error
	SaveEmployee(ctx context.Context, employee *models.Employee) error
}

// Config controls how much data is generated.
type Config struct {
	Companies int
	Employees int
	// Domain is used for generated user emails.
	Domain string
	// CelebrationRatio is the share of employees given a birthday or a work
	// anniversary on Today.
	CelebrationRatio float64
	// InactiveRatio is the share of employees generated with a non-active status.
	InactiveRatio float64
	// NoUserRatio is the share of employees generated without a linked user.
	NoUserRatio float64
	Today       time.Time
	// Seed makes runs reproducible when non-zero.
	Seed int64
}

// DefaultConfig returns a small roster celebrating today.
func DefaultConfig() Config {
	return Config{
		Companies:        2,
		Employees:        25,
		Domain:           "example.com",
		CelebrationRatio: 0.2,
		InactiveRatio:    0.1,
		NoUserRatio:      0.05,
		Today:            time.Now(),
	}
}

// Summary reports what a run wrote.
type Summary struct {
	Companies     int `json:"companies" yaml:"companies"`
	Employees     int `json:"employees" yaml:"employees"`
	Birthdays     int `json:"birthdays_today" yaml:"birthdays_today"`
	Anniversaries int `json:"anniversaries_today" yaml:"anniversaries_today"`
}

// Seeder writes generated records through a RosterWriter.
type Seeder struct {
	writer RosterWriter
	cfg    Config
	faker  *gofakeit.Faker
}

// New creates a seeder. A zero Seed picks a random one.
func New(writer RosterWriter, cfg Config) *Seeder {
	if cfg.Today.IsZero() {
		cfg.Today = time.Now()
	}
	if cfg.Domain == "" {
		cfg.Domain = "example.com"
	}
	return &Seeder{writer: writer, cfg: cfg, faker: gofakeit.New(cfg.Seed)}
}

// Run generates and saves the configured roster.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.cfg.Companies < 1 {
		return nil, fmt.Errorf("at least one company is required")
	}

	summary := &Summary{}
	companies := make([]*models.Company, 0, s.cfg.Companies)
	for i := 0; i < s.cfg.Companies; i++ {
		c := &models.Company{
			ID:          fmt.Sprintf("SEED-CO-%03d", i+1),
			CompanyName: s.faker.Company(),
		}
		if err := s.writer.SaveCompany(ctx, c); err != nil {
			return summary, fmt.Errorf("failed to save company %s: %w", c.ID, err)
		}
		companies = append(companies, c)
		summary.Companies++
	}

	for i := 0; i < s.cfg.Employees; i++ {
		e, kind := s.employee(i, companies)
		if err := s.writer.SaveEmployee(ctx, e); err != nil {
			return summary, fmt.Errorf("failed to save employee %s: %w", e.ID, err)
		}
		summary.Employees++
		if e.IsActive() {
			switch kind {
			case birthday:
				summary.Birthdays++
			case anniversary:
				summary.Anniversaries++
			}
		}
	}

	return summary, nil
}

type celebration int

const (
	none celebration = iota
	birthday
	anniversary
)

func (s *Seeder) employee(i int, companies []*models.Company) (*models.Employee, celebration) {
	today := s.cfg.Today
	first, last := s.faker.FirstName(), s.faker.LastName()

	e := &models.Employee{
		ID:           fmt.Sprintf("SEED-EMP-%05d", i+1),
		EmployeeName: first + " " + last,
		Status:       models.EmployeeStatusActive,
		Company:      companies[s.faker.IntRange(0, len(companies)-1)].ID,
	}
	if s.faker.Float64() >= s.cfg.NoUserRatio {
		e.UserID = strings.ToLower(fmt.Sprintf("%s.%s.%d@%s", first, last, i+1, s.cfg.Domain))
	}
	if s.faker.Float64() < s.cfg.InactiveRatio {
		e.Status = "Left"
	}

	dob := s.faker.DateRange(today.AddDate(-65, 0, 0), today.AddDate(-18, 0, 0))
	doj := s.faker.DateRange(today.AddDate(-20, 0, 0), today.AddDate(0, 0, -1))

	kind := none
	if s.faker.Float64() < s.cfg.CelebrationRatio {
		if s.faker.Bool() {
			kind = birthday
			dob = onDay(today.Year()-s.faker.IntRange(18, 65), today.Month(), today.Day())
		} else {
			kind = anniversary
			doj = onDay(today.Year()-s.faker.IntRange(1, 20), today.Month(), today.Day())
		}
	}

	dob, doj = dateOnly(dob), dateOnly(doj)
	e.DateOfBirth = &dob
	e.DateOfJoining = &doj
	return e, kind
}

// onDay returns month/day in year, stepping back to an earlier year when the
// date does not exist (Feb 29).
func onDay(year int, month time.Month, day int) time.Time {
	for {
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if t.Month() == month && t.Day() == day {
			return t
		}
		year--
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
