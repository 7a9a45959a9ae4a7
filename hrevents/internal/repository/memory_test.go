package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hr-events/hr-events/hrevents/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func employeeIDs(employees []*models.Employee) []string {
	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}
	return ids
}

func seedRoster(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	roster := []*models.Employee{
		{ID: "E1", UserID: "a@co.com", EmployeeName: "Alice", Status: "Active", DateOfBirth: date(1990, 3, 14), DateOfJoining: date(2020, 3, 14), Company: "C1"},
		{ID: "E2", UserID: "b@co.com", EmployeeName: "Bob", Status: "Active", DateOfBirth: date(1985, 7, 1), DateOfJoining: date(2024, 3, 14)},
		{ID: "E3", UserID: "c@co.com", EmployeeName: "Carol", Status: "Left", DateOfBirth: date(1992, 3, 14), DateOfJoining: date(2019, 3, 14)},
		{ID: "E4", EmployeeName: "Dan", Status: "Active", DateOfBirth: date(2000, 3, 14)},
		{ID: "E5", UserID: "e@co.com", EmployeeName: "Eve", Status: "Active", DateOfJoining: date(2025, 3, 14)},
	}
	for _, e := range roster {
		require.NoError(t, repo.SaveEmployee(ctx, e))
	}
	require.NoError(t, repo.SaveCompany(ctx, &models.Company{ID: "C1", CompanyName: "Acme"}))
}

func TestInMemory_UpsertIdentityMapping_Idempotent(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, err := repo.UpsertIdentityMapping(ctx, &models.IdentityMapping{User: "a@co.com", SlackUserID: "U1", SlackUsername: "alice"})
	require.NoError(t, err)

	second, err := repo.UpsertIdentityMapping(ctx, &models.IdentityMapping{User: "a@co.com", SlackUserID: "U1", SlackUsername: "alice"})
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	mappings, err := repo.ListIdentityMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "U1", mappings[0].SlackUserID)
}

func TestInMemory_UpsertIdentityMapping_UpdatesInPlace(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.UpsertIdentityMapping(ctx, &models.IdentityMapping{User: "a@co.com", SlackUserID: "U1", SlackUsername: "alice"})
	require.NoError(t, err)
	_, err = repo.UpsertIdentityMapping(ctx, &models.IdentityMapping{User: "a@co.com", SlackUserID: "U9", SlackUsername: "alice2"})
	require.NoError(t, err)

	m, err := repo.GetIdentityMapping(ctx, "a@co.com")
	require.NoError(t, err)
	assert.Equal(t, "U9", m.SlackUserID)
	assert.Equal(t, "alice2", m.SlackUsername)
}

func TestInMemory_GetIdentityMapping_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	_, err := repo.GetIdentityMapping(context.Background(), "nobody@co.com")
	assert.ErrorIs(t, err, ErrMappingNotFound)
}

func TestInMemory_ListIdentityMappings_Ordered(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, email := range []string{"c@co.com", "a@co.com", "b@co.com"} {
		_, err := repo.UpsertIdentityMapping(ctx, &models.IdentityMapping{User: email, SlackUserID: "U-" + email})
		require.NoError(t, err)
	}

	mappings, err := repo.ListIdentityMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 3)
	assert.Equal(t, "a@co.com", mappings[0].User)
	assert.Equal(t, "c@co.com", mappings[2].User)
}

func TestInMemory_RosterQueries(t *testing.T) {
	repo := NewInMemoryRepository()
	seedRoster(t, repo)
	ctx := context.Background()

	active, err := repo.ListActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E2", "E4", "E5"}, employeeIDs(active))

	birthdays, err := repo.ListBirthdays(ctx, time.March, 14)
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E4"}, employeeIDs(birthdays))

	today := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	anniversaries, err := repo.ListAnniversaries(ctx, time.March, 14, today)
	require.NoError(t, err)
	// E5 joined today and is excluded.
	assert.Equal(t, []string{"E1", "E2"}, employeeIDs(anniversaries))
}

func TestInMemory_GetCompany(t *testing.T) {
	repo := NewInMemoryRepository()
	seedRoster(t, repo)

	c, err := repo.GetCompany(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.CompanyName)

	_, err = repo.GetCompany(context.Background(), "C404")
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestInMemory_Settings(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.GetSettings(ctx)
	assert.ErrorIs(t, err, ErrSettingsNotFound)

	require.NoError(t, repo.SaveSettings(ctx, &models.SettingsRecord{EncryptedBotToken: []byte{1, 2, 3}, SlackChannel: "#hr"}))

	rec, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, rec.EncryptedBotToken)
	assert.Equal(t, "#hr", rec.SlackChannel)
	assert.False(t, rec.UpdatedAt.IsZero())
}
