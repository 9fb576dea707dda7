package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
	"github.com/kartiksrathod/Eduu/internal/storage"
)

const (
	maxPhotoSize   = 5 * 1024 * 1024
	maxPhotoPixels = 40_000_000
	photoDimension = 400
	photoQuality   = 85
	photoPrefix    = "profile_photos/"
	// PhotoURLPrefix is the public path under which profile photos are served.
	PhotoURLPrefix = "/uploads/" + photoPrefix
)

var photoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

type PhotoService struct {
	users repository.UserStore
	store storage.Storage
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewPhotoService(users repository.UserStore, store storage.Storage, log logrus.FieldLogger) *PhotoService {
	return &PhotoService{users: users, store: store, log: log, now: time.Now}
}

// Thumbnail scales img to fit a size x size box and flattens any
// transparency onto white. Images already within the box keep their size.
func Thumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > size || h > size {
		if w >= h {
			h = max(1, h*size/w)
			w = size
		} else {
			w = max(1, w*size/h)
			h = size
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Upload validates, thumbnails and stores a profile photo and points the
// principal's profile at it.
func (s *PhotoService) Upload(ctx context.Context, email string, up *Upload) (*models.User, string, error) {
	if up == nil || up.Filename == "" {
		return nil, "", apperr.BadRequest("File is required")
	}
	contentType := strings.ToLower(up.ContentType)
	if !photoTypes[contentType] {
		return nil, "", apperr.BadRequest("Invalid file type. Only JPEG, PNG, and WebP are allowed.")
	}
	if up.Size > maxPhotoSize {
		return nil, "", apperr.BadRequest("File size must be less than 5MB")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, "", apperr.Internal("Failed to upload photo", err)
	}

	img, err := decodePhoto(up.Body)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Thumbnail(img, photoDimension), &jpeg.Options{Quality: photoQuality}); err != nil {
		return nil, "", apperr.Internal("Failed to process photo", err)
	}

	name := uuid.NewString() + ".jpg"
	if err := s.store.Put(ctx, photoPrefix+name, &buf, int64(buf.Len()), "image/jpeg"); err != nil {
		return nil, "", apperr.Internal("Failed to upload photo", err)
	}

	photoURL := PhotoURLPrefix + name
	if err := s.users.UpdatePhoto(ctx, user.Email, photoURL, s.now().UTC()); err != nil {
		_ = s.store.Delete(ctx, photoPrefix+name)
		return nil, "", apperr.Internal("Failed to upload photo", err)
	}

	if old, ok := strings.CutPrefix(user.ProfilePhoto, PhotoURLPrefix); ok && old != "" {
		if err := s.store.Delete(ctx, photoPrefix+old); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.log.WithError(err).WithField("email", user.Email).Warn("failed to remove previous profile photo")
		}
	}

	user.ProfilePhoto = photoURL
	s.log.WithField("email", user.Email).Info("profile photo updated")
	return user, photoURL, nil
}

// decodePhoto checks the header dimensions before decoding, since a few
// kilobytes of PNG can declare a frame that needs gigabytes of pixels.
func decodePhoto(r io.Reader) (image.Image, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxPhotoSize+1))
	if err != nil {
		return nil, apperr.BadRequest("Invalid image file")
	}
	if len(raw) > maxPhotoSize {
		return nil, apperr.BadRequest("File size must be less than 5MB")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPhotoPixels {
		return nil, apperr.BadRequest("Invalid image file")
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.BadRequest("Invalid image file")
	}
	return img, nil
}

// Open streams a stored profile photo by file name.
func (s *PhotoService) Open(ctx context.Context, name string) (*storage.Object, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, apperr.NotFound("Photo not found")
	}
	obj, err := s.store.Get(ctx, photoPrefix+name)
	if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return nil, apperr.NotFound("Photo not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to read photo", err)
	}
	return obj, nil
}
