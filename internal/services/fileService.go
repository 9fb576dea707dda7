package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/storage"
)

// AllowedExtensions are the resource file types accepted on upload.
var AllowedExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".png", ".jpg", ".jpeg"}

// Upload is a file received from a client. Body is read once.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// FileService validates uploads and moves them in and out of storage.
type FileService struct {
	store   storage.Storage
	maxSize int64
	log     logrus.FieldLogger
}

func NewFileService(store storage.Storage, maxSize int64, log logrus.FieldLogger) *FileService {
	return &FileService{store: store, maxSize: maxSize, log: log}
}

func allowedExt(ext string) bool {
	for _, a := range AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

// Validate returns the lower-cased extension of an acceptable upload.
func (s *FileService) Validate(up *Upload) (string, error) {
	if up == nil || up.Filename == "" {
		return "", apperr.BadRequest("File is required")
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !allowedExt(ext) {
		return "", apperr.BadRequest(fmt.Sprintf("File type not allowed. Allowed types: %s", strings.Join(AllowedExtensions, ", ")))
	}
	if up.Size > s.maxSize {
		return "", apperr.BadRequest(fmt.Sprintf("File too large. Maximum size: %dMB", s.maxSize/(1024*1024)))
	}
	return ext, nil
}

// Save validates up and stores it at <kind-path>/<name><ext>.
func (s *FileService) Save(ctx context.Context, kind models.Kind, name string, up *Upload) (models.StoredFile, error) {
	ext, err := s.Validate(up)
	if err != nil {
		return models.StoredFile{}, err
	}

	contentType := up.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			contentType = byExt
		} else {
			contentType = "application/octet-stream"
		}
	}

	key := kind.Path() + "/" + name + ext
	if err := s.store.Put(ctx, key, up.Body, up.Size, contentType); err != nil {
		return models.StoredFile{}, apperr.Internal("Failed to store file", err)
	}

	return models.StoredFile{
		Key:         key,
		Name:        filepath.Base(up.Filename),
		Size:        up.Size,
		ContentType: contentType,
	}, nil
}

// Open returns the stored object or NotFound "File not found".
func (s *FileService) Open(ctx context.Context, key string) (*storage.Object, error) {
	obj, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return nil, apperr.NotFound("File not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to read file", err)
	}
	return obj, nil
}

// Remove deletes key, logging instead of failing.
func (s *FileService) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.log.WithError(err).WithField("key", key).Warn("failed to remove stored file")
	}
}
