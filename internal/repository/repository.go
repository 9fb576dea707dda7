// Package repository declares the persistence contracts used by the services.
// Implementations live in mongostore and memstore.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kartiksrathod/Eduu/internal/models"
)

// ErrNotFound is returned when a lookup or targeted write matches nothing.
var ErrNotFound = errors.New("repository: not found")

// UserQuery filters principals. Zero fields match everything.
type UserQuery struct {
	// Admin matches User.Admin(): either the is_admin flag or the admin role.
	Admin *bool
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	DeleteByEmail(ctx context.Context, email string) error
	MarkVerified(ctx context.Context, email string, at time.Time) error
	UpdatePassword(ctx context.Context, email, hash string, at time.Time) error
	UpdatePhoto(ctx context.Context, email, photoURL string, at time.Time) error
	SetAdmin(ctx context.Context, email string, isAdmin bool, at time.Time) error
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context, q UserQuery) (int64, error)
}

// ResourceQuery filters resources of one kind. Zero fields match everything.
type ResourceQuery struct {
	UploadedBy string
	Since      time.Time
}

// ResourceUpdate carries the fields to change; nil pointers are left alone.
type ResourceUpdate struct {
	Title       *string
	Description *string
	Abstract    *string
	Content     *string
	Authors     *[]string
	Tags        *[]string
	CourseCode  *string
	Branch      *string
	Year        *string
	File        *models.StoredFile
	UpdatedAt   time.Time
}

// Empty reports whether the update changes no stored field.
func (u ResourceUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Abstract == nil &&
		u.Content == nil && u.Authors == nil && u.Tags == nil &&
		u.CourseCode == nil && u.Branch == nil && u.Year == nil && u.File == nil
}

// ResourceStore persists the records of a single kind.
type ResourceStore interface {
	Insert(ctx context.Context, r *models.Resource) error
	Get(ctx context.Context, id string) (*models.Resource, error)
	// List returns records newest first.
	List(ctx context.Context, skip, limit int64) ([]models.Resource, error)
	Count(ctx context.Context, q ResourceQuery) (int64, error)
	Update(ctx context.Context, id string, u ResourceUpdate) (*models.Resource, error)
	Delete(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error
}

// Resources selects the store for a kind.
type Resources interface {
	For(kind models.Kind) ResourceStore
}

// ResourceSet is a Resources backed by a fixed map.
type ResourceSet map[models.Kind]ResourceStore

func (s ResourceSet) For(kind models.Kind) ResourceStore {
	return s[kind]
}

type BookmarkStore interface {
	// ListByOwner returns the owner's bookmarks newest first.
	ListByOwner(ctx context.Context, email string) ([]models.Bookmark, error)
	Find(ctx context.Context, email string, kind models.Kind, resourceID string) (*models.Bookmark, error)
	FindByID(ctx context.Context, id string) (*models.Bookmark, error)
	Insert(ctx context.Context, b *models.Bookmark) error
	DeleteByTuple(ctx context.Context, email string, kind models.Kind, resourceID string) error
	DeleteByID(ctx context.Context, id string) error
	// Count counts the owner's bookmarks, or all of them when email is empty.
	Count(ctx context.Context, email string) (int64, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores bundles every store the application needs.
type Stores struct {
	Users     UserStore
	Resources Resources
	Bookmarks BookmarkStore
	Pinger    Pinger
	Close     func(ctx context.Context) error
}
