package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Media resolution modes for the composer and calendar thumbnails.
const (
	MediaModeThumb = "thumb"
	MediaModeFull  = "full"
)

type MediaService interface {
	Upload(ctx context.Context, userID, albumID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error)
	Resolve(ctx context.Context, userID, mediaID int64, mode string) (string, error)
	ListAlbum(ctx context.Context, userID, albumID int64) ([]*models.MediaAsset, error)
}

type mediaService struct {
	ma repository.MediaAssetRepository
	r2 R2Service
}

func NewMediaService(ma repository.MediaAssetRepository, r2 R2Service) MediaService {
	return &mediaService{ma: ma, r2: r2}
}

func (s *mediaService) Upload(ctx context.Context, userID, albumID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error) {
	if len(files) == 0 {
		err := errors.New("no files provided")
		slog.Info(err.Error())
		return nil, err
	}

	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	var assets []*models.MediaAsset
	for _, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening file: %w", err)
		}

		fileBytes, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return nil, fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		key, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		if err := s.r2.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
			return nil, fmt.Errorf("error uploading file: %w", err)
		}

		asset := &models.MediaAsset{
			UserID:       userID,
			AlbumID:      albumID,
			FileName:     key,
			FileType:     fileType.MIME.Value,
			FileSize:     int64(len(fileBytes)),
			FileURL:      s.r2.PublicURL(key),
			ThumbnailURL: s.r2.PublicURL(key) + "?w=256",
		}

		assetID, err := s.ma.Create(ctx, nil, asset)
		if err != nil {
			return nil, fmt.Errorf("error saving media file: %w", err)
		}
		asset.ID = assetID
		assets = append(assets, asset)
	}

	return assets, nil
}

// Resolve maps a media identifier to a retrievable URL in the requested
// resolution.
func (s *mediaService) Resolve(ctx context.Context, userID, mediaID int64, mode string) (string, error) {
	asset, err := s.ma.GetByID(ctx, mediaID)
	if err != nil {
		return "", err
	}
	if asset == nil || asset.UserID != userID {
		return "", ErrNotFound
	}

	if mode == MediaModeThumb && asset.ThumbnailURL != "" {
		return asset.ThumbnailURL, nil
	}
	return asset.FileURL, nil
}

func (s *mediaService) ListAlbum(ctx context.Context, userID, albumID int64) ([]*models.MediaAsset, error) {
	assets, err := s.ma.ListByAlbumID(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("error listing album media: %w", err)
	}

	owned := assets[:0]
	for _, a := range assets {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	return owned, nil
}
