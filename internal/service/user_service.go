package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"tutoria/auth/internal/cache"
	"tutoria/auth/internal/models"
	"tutoria/auth/internal/repository"
)

// AdminStore is the slice of the credential store user management needs.
type AdminStore interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context, filter repository.ListFilter) ([]models.User, int, error)
	ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error)
	CountByStatus(ctx context.Context) (map[models.UserStatus]int, error)
	CountByRole(ctx context.Context) (map[models.UserRole]int, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	UpdatePersonalInfo(ctx context.Context, id string, phone, bio *string) error
	Delete(ctx context.Context, id string) error
}

// ReadModels is the cache surface for derived views. It is best-effort:
// callers fall through to the store on any failure.
type ReadModels interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	SetAggregate(ctx context.Context, key string, value any) error
	SetListing(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type UserService struct {
	users      AdminStore
	readModels ReadModels
	listingTTL time.Duration
	log        zerolog.Logger
}

func NewUserService(users AdminStore, readModels ReadModels, listingTTL time.Duration, log zerolog.Logger) *UserService {
	if listingTTL <= 0 {
		listingTTL = time.Minute
	}
	return &UserService{
		users:      users,
		readModels: readModels,
		listingTTL: listingTTL,
		log:        log,
	}
}

type Pagination struct {
	TotalItems   int  `json:"totalItems"`
	TotalPages   int  `json:"totalPages"`
	CurrentPage  int  `json:"currentPage"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPreviousPage"`
}

type UserSummary struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      string  `json:"role"`
	Status    string  `json:"status"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type UserPage struct {
	Data       []UserSummary `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

func (s *UserService) ListUsers(ctx context.Context, filter repository.ListFilter) (UserPage, error) {
	filter = filter.Normalize()
	key := listingKey(filter)

	var cached UserPage
	hit, err := s.readModels.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("listing cache read failed")
	} else if hit {
		return cached, nil
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return UserPage{}, err
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}

	page := UserPage{
		Data: summarize(users),
		Pagination: Pagination{
			TotalItems:   total,
			TotalPages:   totalPages,
			CurrentPage:  filter.Page,
			ItemsPerPage: filter.Limit,
			HasNextPage:  filter.Page < totalPages,
			HasPrevPage:  filter.Page > 1,
		},
	}

	if err := s.readModels.SetListing(ctx, key, page, s.listingTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("listing cache write failed")
	}

	return page, nil
}

func (s *UserService) ChangeRole(ctx context.Context, id string, role models.UserRole) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return models.User{}, err
	}
	user.Role = role

	s.invalidateReadModels(ctx)
	return user, nil
}

func (s *UserService) ChangeStatus(ctx context.Context, id string, status models.UserStatus) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		return models.User{}, err
	}
	user.Status = status

	s.invalidateReadModels(ctx)
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, phone, bio *string) (models.User, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return models.User{}, err
	}

	if err := s.users.UpdatePersonalInfo(ctx, id, phone, bio); err != nil {
		return models.User{}, err
	}

	s.invalidateReadModels(ctx)
	return s.users.GetByID(ctx, id)
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateReadModels(ctx)
	return nil
}

type StatusBucket struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type UserStatsReport struct {
	Total    int                      `json:"total"`
	Statuses map[string]StatusBucket  `json:"statuses"`
	UsersBy  map[string][]UserSummary `json:"users"`
}

func (s *UserService) UserStats(ctx context.Context) (UserStatsReport, error) {
	var cached UserStatsReport
	hit, err := s.readModels.Get(ctx, cache.KeyUserStats, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("user stats cache read failed")
	} else if hit {
		return cached, nil
	}

	counts, err := s.users.CountByStatus(ctx)
	if err != nil {
		return UserStatsReport{}, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	report := UserStatsReport{
		Total:    total,
		Statuses: make(map[string]StatusBucket, len(counts)),
		UsersBy:  make(map[string][]UserSummary),
	}

	for _, status := range []models.UserStatus{
		models.UserStatusActive,
		models.UserStatusSuspended,
		models.UserStatusInactive,
	} {
		report.Statuses[string(status)] = StatusBucket{
			Count:   counts[status],
			Percent: percent(counts[status], total),
		}

		users, err := s.users.ListByStatus(ctx, status)
		if err != nil {
			return UserStatsReport{}, err
		}
		report.UsersBy[string(status)] = summarize(users)
	}

	if err := s.readModels.SetAggregate(ctx, cache.KeyUserStats, report); err != nil {
		s.log.Warn().Err(err).Msg("user stats cache write failed")
	}

	return report, nil
}

type RoleBucket struct {
	Role    string  `json:"role"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type RoleStatsReport struct {
	Total int          `json:"total"`
	Roles []RoleBucket `json:"roles"`
}

func (s *UserService) RoleStats(ctx context.Context) (RoleStatsReport, error) {
	var cached RoleStatsReport
	hit, err := s.readModels.Get(ctx, cache.KeyRoleStats, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("role stats cache read failed")
	} else if hit {
		return cached, nil
	}

	counts, err := s.users.CountByRole(ctx)
	if err != nil {
		return RoleStatsReport{}, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	report := RoleStatsReport{Total: total}
	for _, role := range []models.UserRole{
		models.UserRoleStudent,
		models.UserRoleTutor,
		models.UserRoleAdmin,
	} {
		report.Roles = append(report.Roles, RoleBucket{
			Role:    string(role),
			Count:   counts[role],
			Percent: percent(counts[role], total),
		})
	}

	if err := s.readModels.SetAggregate(ctx, cache.KeyRoleStats, report); err != nil {
		s.log.Warn().Err(err).Msg("role stats cache write failed")
	}

	return report, nil
}

func (s *UserService) invalidateReadModels(ctx context.Context) {
	if err := s.readModels.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("read model invalidation failed")
	}
}

// listingKey escapes the filter values so user-supplied input cannot
// forge another combination's key.
func listingKey(f repository.ListFilter) string {
	return fmt.Sprintf("users:list:page=%d:limit=%d:search=%s:role=%s:status=%s",
		f.Page, f.Limit, url.QueryEscape(f.Search), url.QueryEscape(f.Role), url.QueryEscape(f.Status))
}

func summarize(users []models.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      string(u.Role),
			Status:    string(u.Status),
			AvatarURL: u.AvatarURL,
			Phone:     u.Phone,
		})
	}
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
