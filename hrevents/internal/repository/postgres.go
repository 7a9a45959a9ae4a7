package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hr-events/hr-events/common/database"
	"github.com/hr-events/hr-events/hrevents/internal/models"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := database.PingContext(ctx)
	defer cancel()
	return r.pool.Ping(ctx)
}

// =============================================================================
// IDENTITY MAPPINGS
// =============================================================================

func (r *PostgresRepository) UpsertIdentityMapping(ctx context.Context, mapping *models.IdentityMapping) (*models.IdentityMapping, error) {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO user_meta ("user", slack_user_id, slack_username)
		VALUES ($1, $2, $3)
		ON CONFLICT ("user") DO UPDATE
		SET slack_user_id = EXCLUDED.slack_user_id,
		    slack_username = EXCLUDED.slack_username,
		    updated_at = NOW()
		RETURNING "user", slack_user_id, slack_username, created_at, updated_at
	`

	var m models.IdentityMapping
	err := r.pool.QueryRow(ctx, query, mapping.User, mapping.SlackUserID, mapping.SlackUsername).Scan(
		&m.User, &m.SlackUserID, &m.SlackUsername, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert identity mapping: %w", err)
	}

	return &m, nil
}

func (r *PostgresRepository) GetIdentityMapping(ctx context.Context, email string) (*models.IdentityMapping, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT "user", slack_user_id, slack_username, created_at, updated_at
		FROM user_meta
		WHERE "user" = $1
	`

	var m models.IdentityMapping
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&m.User, &m.SlackUserID, &m.SlackUsername, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMappingNotFound
		}
		return nil, fmt.Errorf("failed to get identity mapping: %w", err)
	}

	return &m, nil
}

func (r *PostgresRepository) ListIdentityMappings(ctx context.Context) ([]*models.IdentityMapping, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT "user", slack_user_id, slack_username, created_at, updated_at
		FROM user_meta
		ORDER BY "user"
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list identity mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*models.IdentityMapping
	for rows.Next() {
		var m models.IdentityMapping
		if err := rows.Scan(&m.User, &m.SlackUserID, &m.SlackUsername, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identity mapping: %w", err)
		}
		mappings = append(mappings, &m)
	}

	return mappings, rows.Err()
}

// =============================================================================
// HR ROSTER
// =============================================================================

const employeeColumns = `id, COALESCE(user_id, ''), employee_name, status, date_of_birth, date_of_joining, COALESCE(company, '')`

func (r *PostgresRepository) ListActiveEmployees(ctx context.Context) ([]*models.Employee, error) {
	ctx, cancel := database.BulkContext(ctx)
	defer cancel()

	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE status = $1
		ORDER BY id
	`

	return r.queryEmployees(ctx, query, models.EmployeeStatusActive)
}

func (r *PostgresRepository) ListBirthdays(ctx context.Context, month time.Month, day int) ([]*models.Employee, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE status = $1
		  AND date_of_birth IS NOT NULL
		  AND EXTRACT(MONTH FROM date_of_birth)::int = $2
		  AND EXTRACT(DAY FROM date_of_birth)::int = $3
		ORDER BY id
	`

	return r.queryEmployees(ctx, query, models.EmployeeStatusActive, int(month), day)
}

func (r *PostgresRepository) ListAnniversaries(ctx context.Context, month time.Month, day int, today time.Time) ([]*models.Employee, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	// Same-day hires have no completed year to celebrate.
	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE status = $1
		  AND date_of_joining IS NOT NULL
		  AND EXTRACT(MONTH FROM date_of_joining)::int = $2
		  AND EXTRACT(DAY FROM date_of_joining)::int = $3
		  AND date_of_joining <> $4::date
		ORDER BY id
	`

	return r.queryEmployees(ctx, query, models.EmployeeStatusActive, int(month), day, dateOnly(today))
}

func (r *PostgresRepository) queryEmployees(ctx context.Context, query string, args ...interface{}) ([]*models.Employee, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.UserID, &e.EmployeeName, &e.Status, &e.DateOfBirth, &e.DateOfJoining, &e.Company); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, &e)
	}

	return employees, rows.Err()
}

func (r *PostgresRepository) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var c models.Company
	err := r.pool.QueryRow(ctx, `SELECT id, company_name FROM companies WHERE id = $1`, id).Scan(&c.ID, &c.CompanyName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &c, nil
}

func (r *PostgresRepository) SaveCompany(ctx context.Context, company *models.Company) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO companies (id, company_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET company_name = EXCLUDED.company_name
	`

	if _, err := r.pool.Exec(ctx, query, company.ID, company.CompanyName); err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveEmployee(ctx context.Context, employee *models.Employee) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO employees (id, user_id, employee_name, status, date_of_birth, date_of_joining, company)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULLIF($7, ''))
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    employee_name = EXCLUDED.employee_name,
		    status = EXCLUDED.status,
		    date_of_birth = EXCLUDED.date_of_birth,
		    date_of_joining = EXCLUDED.date_of_joining,
		    company = EXCLUDED.company
	`

	_, err := r.pool.Exec(ctx, query,
		employee.ID, employee.UserID, employee.EmployeeName, employee.Status,
		employee.DateOfBirth, employee.DateOfJoining, employee.Company,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (r *PostgresRepository) GetSettings(ctx context.Context) (*models.SettingsRecord, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT slack_bot_token, slack_channel, updated_at
		FROM hr_event_settings
		WHERE id = 1
	`

	var rec models.SettingsRecord
	err := r.pool.QueryRow(ctx, query).Scan(&rec.EncryptedBotToken, &rec.SlackChannel, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &rec, nil
}

func (r *PostgresRepository) SaveSettings(ctx context.Context, record *models.SettingsRecord) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO hr_event_settings (id, slack_bot_token, slack_channel, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET slack_bot_token = EXCLUDED.slack_bot_token,
		    slack_channel = EXCLUDED.slack_channel,
		    updated_at = EXCLUDED.updated_at
	`

	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, query, record.EncryptedBotToken, record.SlackChannel, updatedAt); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
