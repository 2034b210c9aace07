package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutoria/auth/internal/cache"
	"tutoria/auth/internal/models"
	"tutoria/auth/internal/repository"
)

type fakeAdminStore struct {
	byID map[string]models.User

	listUsers   []models.User
	listTotal   int
	listCalls   int
	statusCount map[models.UserStatus]int
	roleCount   map[models.UserRole]int

	roleChanges   []string
	statusChanges []string
	deleted       []string
}

func (s *fakeAdminStore) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeAdminStore) List(_ context.Context, _ repository.ListFilter) ([]models.User, int, error) {
	s.listCalls++
	return s.listUsers, s.listTotal, nil
}

func (s *fakeAdminStore) ListByStatus(_ context.Context, status models.UserStatus) ([]models.User, error) {
	var out []models.User
	for _, u := range s.byID {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeAdminStore) CountByStatus(_ context.Context) (map[models.UserStatus]int, error) {
	return s.statusCount, nil
}

func (s *fakeAdminStore) CountByRole(_ context.Context) (map[models.UserRole]int, error) {
	return s.roleCount, nil
}

func (s *fakeAdminStore) UpdateRole(_ context.Context, id string, _ models.UserRole) error {
	s.roleChanges = append(s.roleChanges, id)
	return nil
}

func (s *fakeAdminStore) UpdateStatus(_ context.Context, id string, _ models.UserStatus) error {
	s.statusChanges = append(s.statusChanges, id)
	return nil
}

func (s *fakeAdminStore) UpdatePersonalInfo(_ context.Context, _ string, _, _ *string) error {
	return nil
}

func (s *fakeAdminStore) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

// fakeReadModels remembers aggregates and listings separately so tests can
// see exactly what an invalidation wiped.
type fakeReadModels struct {
	aggregates  map[string]any
	listings    map[string]any
	invalidates int
}

func newFakeReadModels() *fakeReadModels {
	return &fakeReadModels{
		aggregates: make(map[string]any),
		listings:   make(map[string]any),
	}
}

func (m *fakeReadModels) Get(_ context.Context, key string, out any) (bool, error) {
	value, ok := m.aggregates[key]
	if !ok {
		value, ok = m.listings[key]
	}
	if !ok {
		return false, nil
	}
	switch dst := out.(type) {
	case *UserPage:
		*dst = value.(UserPage)
	case *UserStatsReport:
		*dst = value.(UserStatsReport)
	case *RoleStatsReport:
		*dst = value.(RoleStatsReport)
	}
	return true, nil
}

func (m *fakeReadModels) SetAggregate(_ context.Context, key string, value any) error {
	m.aggregates[key] = value
	return nil
}

func (m *fakeReadModels) SetListing(_ context.Context, key string, value any, _ time.Duration) error {
	m.listings[key] = value
	return nil
}

func (m *fakeReadModels) Invalidate(_ context.Context) error {
	m.invalidates++
	m.aggregates = make(map[string]any)
	m.listings = make(map[string]any)
	return nil
}

func newUserService(store *fakeAdminStore, readModels *fakeReadModels) *UserService {
	return NewUserService(store, readModels, time.Minute, zerolog.Nop())
}

func TestListUsers_CachesPage(t *testing.T) {
	store := &fakeAdminStore{
		listUsers: []models.User{{ID: "u1", Email: "a@x.com", Role: models.UserRoleStudent, Status: models.UserStatusActive}},
		listTotal: 25,
	}
	readModels := newFakeReadModels()
	svc := newUserService(store, readModels)

	filter := repository.ListFilter{Page: 2, Limit: 10}

	first, err := svc.ListUsers(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, 25, first.Pagination.TotalItems)
	assert.Equal(t, 3, first.Pagination.TotalPages)
	assert.True(t, first.Pagination.HasNextPage)
	assert.True(t, first.Pagination.HasPrevPage)

	second, err := svc.ListUsers(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls, "second read is served from cache")
	assert.Equal(t, first, second)
}

func TestListUsers_DistinctFiltersDistinctKeys(t *testing.T) {
	store := &fakeAdminStore{listTotal: 0}
	readModels := newFakeReadModels()
	svc := newUserService(store, readModels)

	_, err := svc.ListUsers(context.Background(), repository.ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	_, err = svc.ListUsers(context.Background(), repository.ListFilter{Page: 1, Limit: 10, Role: "admin"})
	require.NoError(t, err)

	assert.Equal(t, 2, store.listCalls)
	assert.Len(t, readModels.listings, 2)
}

func TestListingKey_EscapesFilterValues(t *testing.T) {
	// A search term carrying key syntax must not collide with a genuinely
	// different filter combination.
	forged := repository.ListFilter{Page: 1, Limit: 10, Search: "x:role=admin"}.Normalize()
	filtered := repository.ListFilter{Page: 1, Limit: 10, Search: "x", Role: "admin"}.Normalize()

	assert.NotEqual(t, listingKey(forged), listingKey(filtered))
	assert.Contains(t, listingKey(forged), "search=x%3Arole%3Dadmin")
}

func TestChangeRole_InvalidatesReadModels(t *testing.T) {
	store := &fakeAdminStore{byID: map[string]models.User{
		"u1": {ID: "u1", Role: models.UserRoleStudent},
	}}
	readModels := newFakeReadModels()
	readModels.aggregates[cache.KeyUserStats] = UserStatsReport{Total: 99}
	readModels.listings["users:list:page=1:limit=10:search=:role=:status="] = UserPage{}
	svc := newUserService(store, readModels)

	user, err := svc.ChangeRole(context.Background(), "u1", models.UserRoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, models.UserRoleAdmin, user.Role)
	assert.Equal(t, 1, readModels.invalidates)
	assert.Empty(t, readModels.aggregates)
	assert.Empty(t, readModels.listings)
}

func TestChangeStatus_UnknownUser(t *testing.T) {
	store := &fakeAdminStore{byID: map[string]models.User{}}
	readModels := newFakeReadModels()
	svc := newUserService(store, readModels)

	_, err := svc.ChangeStatus(context.Background(), "missing", models.UserStatusSuspended)

	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.Zero(t, readModels.invalidates, "nothing to invalidate when the write never happened")
}

func TestDeleteUser_InvalidatesReadModels(t *testing.T) {
	store := &fakeAdminStore{byID: map[string]models.User{"u1": {ID: "u1"}}}
	readModels := newFakeReadModels()
	svc := newUserService(store, readModels)

	require.NoError(t, svc.DeleteUser(context.Background(), "u1"))

	assert.Equal(t, []string{"u1"}, store.deleted)
	assert.Equal(t, 1, readModels.invalidates)
}

func TestUserStats_PercentagesAndCaching(t *testing.T) {
	store := &fakeAdminStore{
		byID: map[string]models.User{
			"u1": {ID: "u1", Status: models.UserStatusActive},
			"u2": {ID: "u2", Status: models.UserStatusActive},
			"u3": {ID: "u3", Status: models.UserStatusSuspended},
		},
		statusCount: map[models.UserStatus]int{
			models.UserStatusActive:    2,
			models.UserStatusSuspended: 1,
		},
	}
	readModels := newFakeReadModels()
	svc := newUserService(store, readModels)

	report, err := svc.UserStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Statuses["active"].Count)
	assert.InDelta(t, 66.67, report.Statuses["active"].Percent, 0.001)
	assert.InDelta(t, 33.33, report.Statuses["suspended"].Percent, 0.001)
	assert.Equal(t, 0, report.Statuses["inactive"].Count)
	assert.Len(t, report.UsersBy["active"], 2)

	assert.Contains(t, readModels.aggregates, cache.KeyUserStats)
}

func TestRoleStats_StableOrderAndZeroTotal(t *testing.T) {
	store := &fakeAdminStore{roleCount: map[models.UserRole]int{}}
	readModels := newFakeReadModels()
	svc := newUserService(store, readModels)

	report, err := svc.RoleStats(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Roles, 3)
	assert.Equal(t, "student", report.Roles[0].Role)
	assert.Equal(t, "tutor", report.Roles[1].Role)
	assert.Equal(t, "admin", report.Roles[2].Role)
	assert.Zero(t, report.Roles[0].Percent, "empty population yields zero, not NaN")
	assert.Contains(t, readModels.aggregates, cache.KeyRoleStats)
}
