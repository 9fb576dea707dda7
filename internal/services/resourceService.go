package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/observe"
	"github.com/kartiksrathod/Eduu/internal/repository"
	"github.com/kartiksrathod/Eduu/internal/storage"
)

// ResourceInput holds the descriptive fields of a resource. Nil fields are
// absent from the request.
type ResourceInput struct {
	Title       *string
	Description *string
	Abstract    *string
	Content     *string
	Authors     *[]string
	Tags        *[]string
	CourseCode  *string
	Branch      *string
	Year        *string
}

// SplitList parses a comma separated form value, dropping blanks.
func SplitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type ResourcePage struct {
	Data       []models.Resource
	Pagination Pagination
}

type ResourceService struct {
	resources repository.Resources
	files     *FileService
	metrics   observe.Metrics
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewResourceService(resources repository.Resources, files *FileService, metrics observe.Metrics, log logrus.FieldLogger) *ResourceService {
	return &ResourceService{
		resources: resources,
		files:     files,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

func notFoundKind(kind models.Kind) error {
	return apperr.NotFound(kind.Title() + " not found")
}

func (s *ResourceService) List(ctx context.Context, kind models.Kind, skip, limit int64) (*ResourcePage, error) {
	store := s.resources.For(kind)

	var total int64
	items, err := store.List(ctx, skip, limit)
	if err == nil {
		total, err = store.Count(ctx, repository.ResourceQuery{})
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch "+kind.Path(), err)
	}

	return &ResourcePage{
		Data: items,
		Pagination: Pagination{
			Total:    total,
			Skip:     skip,
			Limit:    limit,
			Returned: len(items),
		},
	}, nil
}

func (s *ResourceService) Get(ctx context.Context, kind models.Kind, id string) (*models.Resource, error) {
	r, err := s.resources.For(kind).Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundKind(kind)
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch "+strings.ToLower(kind.Title()), err)
	}
	return r, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func derefList(p *[]string) []string {
	if p == nil {
		return []string{}
	}
	return *p
}

// Create stores the file and inserts the record. The stored file is removed
// again when the insert fails.
func (s *ResourceService) Create(ctx context.Context, kind models.Kind, in ResourceInput, up *Upload, uploader string) (*models.Resource, error) {
	title := deref(in.Title)
	if title == "" {
		return nil, apperr.BadRequest("Title is required")
	}

	id := uuid.NewString()
	file, err := s.files.Save(ctx, kind, id, up)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	r := &models.Resource{
		ID:          id,
		Kind:        kind,
		Title:       title,
		Description: deref(in.Description),
		Abstract:    deref(in.Abstract),
		Content:     deref(in.Content),
		Authors:     derefList(in.Authors),
		Tags:        derefList(in.Tags),
		CourseCode:  deref(in.CourseCode),
		Branch:      deref(in.Branch),
		Year:        deref(in.Year),
		File:        file,
		UploadedBy:  uploader,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.resources.For(kind).Insert(ctx, r); err != nil {
		s.files.Remove(ctx, file.Key)
		return nil, apperr.Internal("Failed to create "+strings.ToLower(kind.Title()), err)
	}

	s.log.WithFields(logrus.Fields{"kind": kind, "id": id, "email": uploader}).Info("resource created")
	return r, nil
}

// Update changes the given fields and, when up is set, replaces the file.
func (s *ResourceService) Update(ctx context.Context, kind models.Kind, id string, in ResourceInput, up *Upload) (*models.Resource, error) {
	current, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && deref(in.Title) == "" {
		return nil, apperr.BadRequest("Title cannot be empty")
	}

	u := repository.ResourceUpdate{
		Title:       in.Title,
		Description: in.Description,
		Abstract:    in.Abstract,
		Content:     in.Content,
		Authors:     in.Authors,
		Tags:        in.Tags,
		CourseCode:  in.CourseCode,
		Branch:      in.Branch,
		Year:        in.Year,
		UpdatedAt:   s.now().UTC(),
	}

	// A replacement goes to a fresh key so the current object stays
	// intact until the record points elsewhere.
	var newFile *models.StoredFile
	if up != nil {
		f, err := s.files.Save(ctx, kind, id+"-"+uuid.NewString(), up)
		if err != nil {
			return nil, err
		}
		newFile = &f
		u.File = newFile
	}

	updated, err := s.resources.For(kind).Update(ctx, id, u)
	if err != nil {
		if newFile != nil {
			s.files.Remove(ctx, newFile.Key)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundKind(kind)
		}
		return nil, apperr.Internal("Failed to update "+strings.ToLower(kind.Title()), err)
	}

	if newFile != nil {
		s.files.Remove(ctx, current.File.Key)
	}

	s.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("resource updated")
	return updated, nil
}

// Delete removes the record, then its file.
func (s *ResourceService) Delete(ctx context.Context, kind models.Kind, id string) error {
	current, err := s.Get(ctx, kind, id)
	if err != nil {
		return err
	}

	err = s.resources.For(kind).Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundKind(kind)
	}
	if err != nil {
		return apperr.Internal("Failed to delete "+strings.ToLower(kind.Title()), err)
	}

	s.files.Remove(ctx, current.File.Key)
	s.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("resource deleted")
	return nil
}

// Download counts a download and opens the file.
func (s *ResourceService) Download(ctx context.Context, kind models.Kind, id string) (*models.Resource, *storage.Object, error) {
	r, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, nil, err
	}

	if err := s.resources.For(kind).IncrementDownloads(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundKind(kind)
		}
		return nil, nil, apperr.Internal("Failed to record download", err)
	}
	r.DownloadCount++

	obj, err := s.files.Open(ctx, r.File.Key)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordDownload(ctx, string(kind))
	return r, obj, nil
}

// View opens the file without counting a download.
func (s *ResourceService) View(ctx context.Context, kind models.Kind, id string) (*models.Resource, *storage.Object, error) {
	r, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.files.Open(ctx, r.File.Key)
	if err != nil {
		return nil, nil, err
	}
	return r, obj, nil
}

// OpenByFilename opens <kind-path>/<filename> directly.
func (s *ResourceService) OpenByFilename(ctx context.Context, kind models.Kind, filename string) (*storage.Object, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) {
		return nil, apperr.NotFound("File not found")
	}
	return s.files.Open(ctx, kind.Path()+"/"+filename)
}
