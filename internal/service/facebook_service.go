package service

import (
	"context"
	"fmt"

	config "github.com/campfirehq/socialqueue/configs"
	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/campfirehq/socialqueue/pkg/utils"
)

type FacebookService interface {
	PlatformPublisher
}

type facebookService struct {
	cfg config.Config
	ma  repository.MediaAssetRepository
}

func NewFacebookService(cfg config.Config, ma repository.MediaAssetRepository) FacebookService {
	return &facebookService{cfg: cfg, ma: ma}
}

// Publish uploads each photo unpublished, then creates one feed post
// attaching them in the composition's order. Facebook pages have no carousel
// item cap, so any accepted composition goes through unchanged.
func (fb *facebookService) Publish(ctx context.Context, acc *models.SocialAccount, caption string, specs []models.MediaSpec) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(fb.cfg.SecretKey))
	if err != nil {
		return fmt.Errorf("failed to decrypt access token: %w", err)
	}

	attached := make([]map[string]string, 0, len(specs))
	for _, spec := range specs {
		asset, err := fb.ma.GetByID(ctx, spec.MediaID)
		if err != nil {
			return fmt.Errorf("error retrieving media asset %d: %w", spec.MediaID, err)
		}
		if asset == nil || asset.FileURL == "" {
			return fmt.Errorf("media asset %d is missing or incomplete", spec.MediaID)
		}

		photoURL := fmt.Sprintf("%s/%s/photos", fb.cfg.GraphAPIBaseURL, acc.AccountID)
		result, err := postJSON(ctx, photoURL, map[string]interface{}{
			"url":          asset.FileURL,
			"published":    false,
			"alt_text":     spec.AltText,
			"access_token": accessToken,
		})
		if err != nil {
			return fmt.Errorf("failed to upload photo: %w", err)
		}
		attached = append(attached, map[string]string{"media_fbid": result.ID})
	}

	feedURL := fmt.Sprintf("%s/%s/feed", fb.cfg.GraphAPIBaseURL, acc.AccountID)
	if _, err := postJSON(ctx, feedURL, map[string]interface{}{
		"message":        caption,
		"attached_media": attached,
		"access_token":   accessToken,
	}); err != nil {
		return fmt.Errorf("failed to create feed post: %w", err)
	}
	return nil
}
