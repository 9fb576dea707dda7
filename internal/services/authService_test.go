package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/auth"
	"github.com/kartiksrathod/Eduu/internal/models"
)

func TestRegisterVerifyLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.auth.RegisterUser(ctx, RegisterInput{
		Name: "Asha", Email: " Asha@Example.com ", Password: "secret1", USN: "1AB21CS001", Semester: "5",
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.mailer.count())
	assert.Equal(t, "asha@example.com", f.mailer.last().to)

	_, err = f.auth.LoginUser(ctx, "asha@example.com", "secret1")
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "unverified login must be forbidden")

	u, err := f.auth.VerifyEmail(ctx, f.mailer.last().token)
	require.NoError(t, err)
	assert.True(t, u.Verified)
	assert.Equal(t, "1AB21CS001", u.USN)

	again, err := f.auth.VerifyEmail(ctx, f.mailer.last().token)
	require.NoError(t, err, "verification is idempotent")
	assert.True(t, again.Verified)

	res, err := f.auth.LoginUser(ctx, "ASHA@example.com", "secret1")
	require.NoError(t, err)
	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", claims.Subject)
	assert.Equal(t, auth.PurposeAccess, claims.Purpose)
	assert.False(t, claims.IsAdmin)
	assert.Equal(t, "student", claims.Role)
}

func TestRegisterRejectsVerifiedDuplicate(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t, "a@b.c")

	err := f.auth.RegisterUser(context.Background(), RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	assert.Equal(t, "Email already registered and verified", err.Error())
}

func TestRegisterReplacesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.RegisterUser(ctx, RegisterInput{Name: "Old", Email: "a@b.c", Password: "secret1"}))
	require.NoError(t, f.auth.RegisterUser(ctx, RegisterInput{Name: "New", Email: "a@b.c", Password: "secret2"}))

	u, err := f.stores.Users.FindByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.True(t, auth.VerifyPassword("secret2", u.Password))
}

func TestRegisterMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	err := f.auth.RegisterUser(context.Background(), RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestVerifyRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t, "a@b.c")

	access, err := f.tokens.IssueAccess("a@b.c", "student", false)
	require.NoError(t, err)

	_, err = f.auth.VerifyEmail(context.Background(), access)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = f.auth.VerifyEmail(context.Background(), "garbage")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestVerifyExpiredLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.auth.RegisterUser(ctx, RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"}))
	token := f.mailer.last().token

	f.auth.tokens = f.tokens.WithClock(func() time.Time { return time.Now().Add(16 * time.Minute) })
	_, err := f.auth.VerifyEmail(ctx, token)
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired verification link", err.Error())
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t, "a@b.c")
	ctx := context.Background()

	_, err := f.auth.LoginUser(ctx, "nobody@b.c", "secret1")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err = f.auth.LoginUser(ctx, "a@b.c", "wrong-password")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.ResendVerification(ctx, "nobody@b.c")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, f.auth.RegisterUser(ctx, RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"}))
	msg, err := f.auth.ResendVerification(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Contains(t, msg, "resent")

	f.pool.Wait()
	assert.Equal(t, 2, f.mailer.count())
	_, err = f.auth.VerifyEmail(ctx, f.mailer.last().token)
	require.NoError(t, err)

	msg, err = f.auth.ResendVerification(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "Email already verified", msg)
}

func TestResendAfterPoolClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.auth.RegisterUser(ctx, RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"}))
	f.pool.Close()

	msg, err := f.auth.ResendVerification(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Contains(t, msg, "resent")
	assert.Equal(t, 1, f.mailer.count())
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t, "a@b.c")
	ctx := context.Background()

	err := f.auth.ChangePassword(ctx, "a@b.c", "nope", "newpass1")
	assert.Equal(t, "Old password is incorrect", err.Error())

	err = f.auth.ChangePassword(ctx, "a@b.c", "secret1", "123")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	require.NoError(t, f.auth.ChangePassword(ctx, "a@b.c", "secret1", "newpass1"))
	_, err = f.auth.LoginUser(ctx, "a@b.c", "newpass1")
	assert.NoError(t, err)
}

func TestAdminService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser(t, "root@b.c")
	f.verifiedUser(t, "s1@b.c")
	f.verifiedUser(t, "s2@b.c")

	u, err := f.admin.SetAdmin(ctx, "Root@B.C", true)
	require.NoError(t, err)
	assert.True(t, u.Admin())
	assert.Equal(t, "admin", u.Role)

	stats, err := f.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{TotalUsers: 3, TotalAdmins: 1, TotalStudents: 2}, stats)

	users, err := f.admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	_, err = f.admin.GetUserByEmail(ctx, "ghost@b.c")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = f.admin.SetAdmin(ctx, "ghost@b.c", true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDashboardCountsRoleOnlyAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.stores.Users.Create(ctx, &models.User{ID: "1", Email: "legacy@b.c", Role: models.RoleAdmin}))
	f.verifiedUser(t, "s1@b.c")

	stats, err := f.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{TotalUsers: 2, TotalAdmins: 1, TotalStudents: 1}, stats)
}
