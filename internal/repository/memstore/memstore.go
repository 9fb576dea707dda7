// Package memstore keeps records in process memory. It backs the memory
// database driver and the handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
)

// New returns a fresh set of empty stores.
func New() repository.Stores {
	resources := repository.ResourceSet{}
	for _, k := range models.Kinds {
		resources[k] = NewResourceStore()
	}
	return repository.Stores{
		Users:     NewUserStore(),
		Resources: resources,
		Bookmarks: NewBookmarkStore(),
		Pinger:    pinger{},
		Close:     func(context.Context) error { return nil },
	}
}

type pinger struct{}

func (pinger) Ping(context.Context) error { return nil }

func key(email string) string {
	return strings.ToLower(email)
}

type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]models.User{}}
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[key(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[key(u.Email)] = *u
	return nil
}

func (s *UserStore) DeleteByEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key(email)]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, key(email))
	return nil
}

func (s *UserStore) update(email string, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[key(email)]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	s.users[key(email)] = u
	return nil
}

func (s *UserStore) MarkVerified(_ context.Context, email string, at time.Time) error {
	return s.update(email, func(u *models.User) {
		u.Verified = true
		u.VerifiedAt = &at
		u.UpdatedAt = at
	})
}

func (s *UserStore) UpdatePassword(_ context.Context, email, hash string, at time.Time) error {
	return s.update(email, func(u *models.User) {
		u.Password = hash
		u.UpdatedAt = at
	})
}

func (s *UserStore) UpdatePhoto(_ context.Context, email, photoURL string, at time.Time) error {
	return s.update(email, func(u *models.User) {
		u.ProfilePhoto = photoURL
		u.UpdatedAt = at
	})
}

func (s *UserStore) SetAdmin(_ context.Context, email string, isAdmin bool, at time.Time) error {
	return s.update(email, func(u *models.User) {
		u.IsAdmin = isAdmin
		u.Role = models.RoleStudent
		if isAdmin {
			u.Role = models.RoleAdmin
		}
		u.UpdatedAt = at
	})
}

func (s *UserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *UserStore) Count(_ context.Context, q repository.UserQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, u := range s.users {
		if q.Admin != nil && u.Admin() != *q.Admin {
			continue
		}
		n++
	}
	return n, nil
}

type ResourceStore struct {
	mu    sync.RWMutex
	items map[string]models.Resource
}

func NewResourceStore() *ResourceStore {
	return &ResourceStore{items: map[string]models.Resource{}}
}

func (s *ResourceStore) Insert(_ context.Context, r *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.ID] = *r
	return nil
}

func (s *ResourceStore) Get(_ context.Context, id string) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *ResourceStore) List(_ context.Context, skip, limit int64) ([]models.Resource, error) {
	s.mu.RLock()
	all := make([]models.Resource, 0, len(s.items))
	for _, r := range s.items {
		all = append(all, r)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if skip >= int64(len(all)) {
		return []models.Resource{}, nil
	}
	end := skip + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[skip:end], nil
}

func (s *ResourceStore) Count(_ context.Context, q repository.ResourceQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.items {
		if q.UploadedBy != "" && r.UploadedBy != q.UploadedBy {
			continue
		}
		if !q.Since.IsZero() && r.CreatedAt.Before(q.Since) {
			continue
		}
		n++
	}
	return n, nil
}

func (s *ResourceStore) Update(_ context.Context, id string, u repository.ResourceUpdate) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Title, u.Title)
	set(&r.Description, u.Description)
	set(&r.Abstract, u.Abstract)
	set(&r.Content, u.Content)
	set(&r.CourseCode, u.CourseCode)
	set(&r.Branch, u.Branch)
	set(&r.Year, u.Year)
	if u.Authors != nil {
		r.Authors = *u.Authors
	}
	if u.Tags != nil {
		r.Tags = *u.Tags
	}
	if u.File != nil {
		r.File = *u.File
	}
	r.UpdatedAt = u.UpdatedAt

	s.items[id] = r
	return &r, nil
}

func (s *ResourceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *ResourceStore) IncrementDownloads(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.DownloadCount++
	s.items[id] = r
	return nil
}

type BookmarkStore struct {
	mu    sync.RWMutex
	items map[string]models.Bookmark
}

func NewBookmarkStore() *BookmarkStore {
	return &BookmarkStore{items: map[string]models.Bookmark{}}
}

func (s *BookmarkStore) ListByOwner(_ context.Context, email string) ([]models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Bookmark{}
	for _, b := range s.items {
		if b.UserEmail == email {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *BookmarkStore) Find(_ context.Context, email string, kind models.Kind, resourceID string) (*models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.items {
		if b.UserEmail == email && b.ResourceType == kind && b.ResourceID == resourceID {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *BookmarkStore) FindByID(_ context.Context, id string) (*models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (s *BookmarkStore) Insert(_ context.Context, b *models.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[b.ID] = *b
	return nil
}

func (s *BookmarkStore) DeleteByTuple(_ context.Context, email string, kind models.Kind, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.items {
		if b.UserEmail == email && b.ResourceType == kind && b.ResourceID == resourceID {
			delete(s.items, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *BookmarkStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *BookmarkStore) Count(_ context.Context, email string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if email == "" {
		return int64(len(s.items)), nil
	}
	var n int64
	for _, b := range s.items {
		if b.UserEmail == email {
			n++
		}
	}
	return n, nil
}
