package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	"github.com/rs/zerolog"

	"webagency/api/internal/config"
	"webagency/api/internal/ids"
	"webagency/api/internal/models"
	"webagency/api/internal/repository"
)

var (
	ErrUploadTooLarge  = errors.New("file exceeds the maximum upload size")
	ErrUploadForbidden = errors.New("only the owner or an admin may delete this upload")
)

// ObjectStore holds upload payloads. The MinIO-backed implementation lives in
// internal/storage.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, objectName string) error
}

type UploadService struct {
	uploads repository.UploadRepository
	store   ObjectStore
	cfg     *config.AppConfig
	log     zerolog.Logger
}

func NewUploadService(
	uploads repository.UploadRepository,
	store ObjectStore,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *UploadService {
	return &UploadService{
		uploads: uploads,
		store:   store,
		cfg:     cfg,
		log:     log,
	}
}

func (s *UploadService) Upload(ctx context.Context, owner models.AuthUser, file multipart.File, header *multipart.FileHeader) (models.Upload, error) {
	if file == nil || header == nil {
		return models.Upload{}, errors.New("invalid file payload")
	}
	if header.Size > s.cfg.Uploads.MaxSizeBytes {
		return models.Upload{}, ErrUploadTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	upload := models.Upload{
		ID:           ids.New(),
		UserID:       owner.ID,
		OriginalName: header.Filename,
		MimeType:     contentType,
		SizeBytes:    header.Size,
	}
	upload.Filename = upload.ID + path.Ext(header.Filename)

	if err := s.store.Put(ctx, upload.Filename, file, header.Size, contentType); err != nil {
		return models.Upload{}, fmt.Errorf("store object: %w", err)
	}

	if err := s.uploads.Create(ctx, upload); err != nil {
		if removeErr := s.store.Remove(ctx, upload.Filename); removeErr != nil {
			s.log.Warn().Err(removeErr).Str("object", upload.Filename).Msg("orphan object cleanup failed")
		}
		return models.Upload{}, err
	}

	return upload, nil
}

// List returns every upload for admins and only the caller's own otherwise.
func (s *UploadService) List(ctx context.Context, actor models.AuthUser) ([]models.Upload, error) {
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin {
		return s.uploads.List(ctx)
	}
	return s.uploads.ListByUser(ctx, actor.ID)
}

// Delete removes an upload. Permitted for the owning user and for ADMIN or
// SUPER_ADMIN accounts.
func (s *UploadService) Delete(ctx context.Context, actor models.AuthUser, uploadID string) error {
	upload, err := s.uploads.GetByID(ctx, uploadID)
	if err != nil {
		return err
	}

	isAdmin := actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin
	if upload.UserID != actor.ID && !isAdmin {
		return ErrUploadForbidden
	}

	if err := s.store.Remove(ctx, upload.Filename); err != nil {
		s.log.Warn().Err(err).Str("object", upload.Filename).Msg("object removal failed")
	}

	return s.uploads.Delete(ctx, uploadID)
}
