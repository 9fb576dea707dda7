package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/kartiksrathod/Eduu/internal/auth"
	"github.com/kartiksrathod/Eduu/internal/observe"
	"github.com/kartiksrathod/Eduu/internal/repository"
	"github.com/kartiksrathod/Eduu/internal/repository/memstore"
	"github.com/kartiksrathod/Eduu/internal/storage"
	"github.com/kartiksrathod/Eduu/internal/utils"
)

type sentMail struct {
	to, token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendVerification(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, token})
	return nil
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	stores    repository.Stores
	store     storage.Storage
	mailer    *fakeMailer
	pool      *utils.WorkerPool
	tokens    *auth.TokenService
	auth      *AuthService
	admin     *AdminService
	resources *ResourceService
	bookmarks *BookmarkService
	stats     *StatsService
	photos    *PhotoService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		stores: memstore.New(),
		store:  store,
		mailer: &fakeMailer{},
		pool:   utils.NewWorkerPool(1),
		tokens: auth.NewTokenService("test-secret", time.Hour, 15*time.Minute),
	}
	t.Cleanup(f.pool.Close)

	files := NewFileService(store, 1024*1024, log)
	f.auth = NewAuthService(f.stores.Users, f.tokens, f.mailer, f.pool, log)
	f.admin = NewAdminService(f.stores.Users, log)
	f.resources = NewResourceService(f.stores.Resources, files, observe.Noop(), log)
	f.bookmarks = NewBookmarkService(f.stores.Bookmarks, f.stores.Resources)
	f.stats = NewStatsService(f.stores.Users, f.stores.Resources, f.stores.Bookmarks)
	f.photos = NewPhotoService(f.stores.Users, store, log)
	return f
}

// verifiedUser registers and verifies email with password "secret1".
func (f *fixture) verifiedUser(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.auth.RegisterUser(ctx, RegisterInput{Name: "Test", Email: email, Password: "secret1"}))
	_, err := f.auth.VerifyEmail(ctx, f.mailer.last().token)
	require.NoError(t, err)
}
