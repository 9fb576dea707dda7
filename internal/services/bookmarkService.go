package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/auth"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
)

type BookmarkService struct {
	bookmarks repository.BookmarkStore
	resources repository.Resources
	now       func() time.Time
}

func NewBookmarkService(bookmarks repository.BookmarkStore, resources repository.Resources) *BookmarkService {
	return &BookmarkService{bookmarks: bookmarks, resources: resources, now: time.Now}
}

// ParseResourceType validates a bookmark resource type.
func ParseResourceType(s string) (models.Kind, error) {
	kind, ok := models.ParseKind(s)
	if !ok {
		return "", apperr.BadRequest("Invalid resource type. Must be one of: paper, note, syllabus")
	}
	return kind, nil
}

func (s *BookmarkService) List(ctx context.Context, owner string) ([]models.Bookmark, error) {
	out, err := s.bookmarks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch bookmarks", err)
	}
	return out, nil
}

// Check returns the owner's bookmark for the resource, or nil.
func (s *BookmarkService) Check(ctx context.Context, owner string, kind models.Kind, resourceID string) (*models.Bookmark, error) {
	b, err := s.bookmarks.Find(ctx, owner, kind, resourceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to check bookmark", err)
	}
	return b, nil
}

// Create bookmarks a resource. An existing bookmark for the same tuple is
// returned with created=false.
func (s *BookmarkService) Create(ctx context.Context, owner string, kind models.Kind, resourceID, category string) (*models.Bookmark, bool, error) {
	existing, err := s.Check(ctx, owner, kind, resourceID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	_, err = s.resources.For(kind).Get(ctx, resourceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, notFoundKind(kind)
	}
	if err != nil {
		return nil, false, apperr.Internal("Failed to create bookmark", err)
	}

	if category = strings.TrimSpace(category); category == "" {
		category = models.DefaultBookmarkCategory
	}
	b := &models.Bookmark{
		ID:           uuid.NewString(),
		UserEmail:    owner,
		ResourceType: kind,
		ResourceID:   resourceID,
		Category:     category,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.bookmarks.Insert(ctx, b); err != nil {
		return nil, false, apperr.Internal("Failed to create bookmark", err)
	}
	return b, true, nil
}

func (s *BookmarkService) DeleteByTuple(ctx context.Context, owner string, kind models.Kind, resourceID string) error {
	err := s.bookmarks.DeleteByTuple(ctx, owner, kind, resourceID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Bookmark not found")
	}
	if err != nil {
		return apperr.Internal("Failed to delete bookmark", err)
	}
	return nil
}

// DeleteByID deletes a bookmark the caller owns.
func (s *BookmarkService) DeleteByID(ctx context.Context, owner, id string) error {
	b, err := s.bookmarks.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Bookmark not found")
	}
	if err != nil {
		return apperr.Internal("Failed to delete bookmark", err)
	}
	if err := auth.CheckOwner(b.UserEmail, owner, "Not authorized to delete this bookmark"); err != nil {
		return err
	}

	err = s.bookmarks.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Bookmark not found")
	}
	if err != nil {
		return apperr.Internal("Failed to delete bookmark", err)
	}
	return nil
}
