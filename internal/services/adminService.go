package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
	"github.com/kartiksrathod/Eduu/internal/utils"
)

type DashboardStats struct {
	TotalUsers    int64 `json:"total_users"`
	TotalAdmins   int64 `json:"total_admins"`
	TotalStudents int64 `json:"total_students"`
}

type AdminService struct {
	users repository.UserStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewAdminService(users repository.UserStore, log logrus.FieldLogger) *AdminService {
	return &AdminService{users: users, log: log, now: time.Now}
}

// Dashboard counts principals by role.
func (s *AdminService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	admins := true
	err := utils.Parallel(ctx,
		func(ctx context.Context) (err error) {
			stats.TotalUsers, err = s.users.Count(ctx, repository.UserQuery{})
			return err
		},
		func(ctx context.Context) (err error) {
			stats.TotalAdmins, err = s.users.Count(ctx, repository.UserQuery{Admin: &admins})
			return err
		},
	)
	if err != nil {
		return DashboardStats{}, apperr.Internal("Failed to fetch dashboard stats", err)
	}
	stats.TotalStudents = stats.TotalUsers - stats.TotalAdmins
	return stats, nil
}

// ListUsers returns all principals, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch users", err)
	}
	return users, nil
}

// GetUserByEmail returns a single principal.
func (s *AdminService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch user", err)
	}
	return user, nil
}

// SetAdmin grants or revokes admin on a stored principal. The admin gate
// reads the store, so the change applies to the principal's next request.
func (s *AdminService) SetAdmin(ctx context.Context, email string, isAdmin bool) (*models.User, error) {
	email = NormalizeEmail(email)
	err := s.users.SetAdmin(ctx, email, isAdmin, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to update user", err)
	}

	s.log.WithFields(logrus.Fields{"email": email, "is_admin": isAdmin}).Info("admin flag changed")
	return s.GetUserByEmail(ctx, email)
}
