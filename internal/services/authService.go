package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/auth"
	"github.com/kartiksrathod/Eduu/internal/mail"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
	"github.com/kartiksrathod/Eduu/internal/utils"
)

const minPasswordLength = 6

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	USN      string
	Course   string
	Semester string
}

// LoginResult is a freshly issued access token and the principal it names.
type LoginResult struct {
	Token string
	User  *models.User
}

type AuthService struct {
	users  repository.UserStore
	tokens *auth.TokenService
	mailer mail.Mailer
	pool   *utils.WorkerPool
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewAuthService(users repository.UserStore, tokens *auth.TokenService, mailer mail.Mailer, pool *utils.WorkerPool, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		pool:   pool,
		log:    log,
		now:    time.Now,
	}
}

// Tokens exposes the token service used for issuing access tokens.
func (s *AuthService) Tokens() *auth.TokenService {
	return s.tokens
}

// RegisterUser stores a pending principal and mails a verification link.
// An unverified record for the same email is replaced.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) error {
	email := NormalizeEmail(in.Email)
	if len(in.Password) < minPasswordLength {
		return apperr.BadRequest("Password must be at least 6 characters")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.Verified:
		return apperr.BadRequest("Email already registered and verified")
	case err == nil:
		if err := s.users.DeleteByEmail(ctx, email); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return apperr.Internal("Failed to register user", err)
		}
	case !errors.Is(err, repository.ErrNotFound):
		return apperr.Internal("Failed to register user", err)
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		return apperr.Internal("Failed to register user", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Password:  hashedPassword,
		USN:       in.USN,
		Course:    in.Course,
		Semester:  in.Semester,
		Role:      models.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return apperr.Internal("Failed to register user", err)
	}

	token, err := s.tokens.IssueVerification(email)
	if err != nil {
		return apperr.Internal("Failed to issue verification token", err)
	}
	if err := s.mailer.SendVerification(ctx, email, token); err != nil {
		s.log.WithError(err).WithField("email", email).Error("verification email failed")
		return apperr.Internal("Failed to send verification email", err)
	}

	s.log.WithField("email", email).Info("user registered, verification pending")
	return nil
}

// VerifyEmail redeems a verification token. Verifying twice is not an error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	invalid := apperr.BadRequest("Invalid or expired verification link")

	claims, err := s.tokens.Verify(token)
	if err != nil || claims.Purpose != auth.PurposeVerification {
		return nil, invalid
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperr.Internal("Failed to verify email", err)
	}
	if user.Verified {
		return user, nil
	}

	now := s.now().UTC()
	if err := s.users.MarkVerified(ctx, user.Email, now); err != nil {
		return nil, apperr.Internal("Failed to verify email", err)
	}
	user.Verified = true
	user.VerifiedAt = &now

	s.log.WithField("email", user.Email).Info("email verified")
	return user, nil
}

// LoginUser checks credentials and issues an access token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to log in", err)
	}
	if !user.Verified {
		return nil, apperr.Forbidden("Please verify your email before logging in")
	}
	if !auth.VerifyPassword(password, user.Password) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}

	token, err := s.tokens.IssueAccess(user.Email, user.EffectiveRole(), user.Admin())
	if err != nil {
		return nil, apperr.Internal("Failed to issue token", err)
	}

	s.log.WithField("email", user.Email).Info("user logged in")
	return &LoginResult{Token: token, User: user}, nil
}

// ResendVerification mails a fresh link in the background and returns the
// message to show the caller.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperr.NotFound("User not found")
	}
	if err != nil {
		return "", apperr.Internal("Failed to resend verification email", err)
	}
	if user.Verified {
		return "Email already verified", nil
	}

	token, err := s.tokens.IssueVerification(email)
	if err != nil {
		return "", apperr.Internal("Failed to issue verification token", err)
	}

	log := s.log.WithField("email", email)
	queued := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendVerification(ctx, email, token); err != nil {
			log.WithError(err).Error("resend verification email failed")
			return
		}
		log.Info("verification email resent")
	})
	if !queued {
		log.Warn("worker pool closed; verification email dropped")
	}

	return "Verification email resent. Please check your inbox.", nil
}

// Profile returns the stored principal for email.
func (s *AuthService) Profile(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch profile", err)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.BadRequest("Password must be at least 6 characters")
	}

	user, err := s.Profile(ctx, email)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(oldPassword, user.Password) {
		return apperr.BadRequest("Old password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("Failed to update password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.Email, hash, s.now().UTC()); err != nil {
		return apperr.Internal("Failed to update password", err)
	}

	s.log.WithField("email", user.Email).Info("password changed")
	return nil
}
