package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	config "github.com/campfirehq/socialqueue/configs"
	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/campfirehq/socialqueue/pkg/utils"
)

// PlatformPublisher performs the network call that places a composition on
// one connected account. Implementations own their HTTP semantics and
// timeouts; a returned error is recorded as that target's failure and never
// aborts sibling targets.
type PlatformPublisher interface {
	Publish(ctx context.Context, acc *models.SocialAccount, caption string, specs []models.MediaSpec) error
}

type InstagramService interface {
	PlatformPublisher
}

type instagramService struct {
	cfg config.Config
	ma  repository.MediaAssetRepository
}

func NewInstagramService(cfg config.Config, ma repository.MediaAssetRepository) InstagramService {
	return &instagramService{cfg: cfg, ma: ma}
}

// Publish creates one media container per item (or a carousel wrapping them)
// and then publishes the container. Item order follows the specs slice.
func (ig *instagramService) Publish(ctx context.Context, acc *models.SocialAccount, caption string, specs []models.MediaSpec) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(ig.cfg.SecretKey))
	if err != nil {
		return fmt.Errorf("failed to decrypt access token: %w", err)
	}

	var creationID string
	if len(specs) == 1 {
		asset, err := ig.ma.GetByID(ctx, specs[0].MediaID)
		if err != nil {
			return fmt.Errorf("error retrieving media asset %d: %w", specs[0].MediaID, err)
		}
		if asset == nil || asset.FileURL == "" {
			return fmt.Errorf("media asset %d is missing or incomplete", specs[0].MediaID)
		}

		creationID, err = ig.createContainer(ctx, acc.AccountID, map[string]interface{}{
			"image_url":    asset.FileURL,
			"caption":      caption,
			"access_token": accessToken,
		})
		if err != nil {
			return fmt.Errorf("failed to create media container: %w", err)
		}
	} else {
		creationID, err = ig.createCarousel(ctx, acc.AccountID, caption, accessToken, specs)
		if err != nil {
			return err
		}
	}

	return ig.publishContainer(ctx, acc.AccountID, creationID, accessToken)
}

func (ig *instagramService) createCarousel(ctx context.Context, accountID, caption, accessToken string, specs []models.MediaSpec) (string, error) {
	children := make([]string, 0, len(specs))
	for _, spec := range specs {
		asset, err := ig.ma.GetByID(ctx, spec.MediaID)
		if err != nil {
			return "", fmt.Errorf("error retrieving media asset %d: %w", spec.MediaID, err)
		}
		if asset == nil || asset.FileURL == "" {
			return "", fmt.Errorf("media asset %d is missing or incomplete", spec.MediaID)
		}

		childID, err := ig.createContainer(ctx, accountID, map[string]interface{}{
			"image_url":        asset.FileURL,
			"is_carousel_item": true,
			"access_token":     accessToken,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create carousel item: %w", err)
		}
		children = append(children, childID)
	}

	carouselID, err := ig.createContainer(ctx, accountID, map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      caption,
		"children":     children,
		"access_token": accessToken,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create carousel container: %w", err)
	}
	return carouselID, nil
}

func (ig *instagramService) createContainer(ctx context.Context, accountID string, payload map[string]interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/media", ig.cfg.IGAPIBaseURL, accountID)

	result, err := postJSON(ctx, url, payload)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media ID returned from Instagram")
	}
	return result.ID, nil
}

func (ig *instagramService) publishContainer(ctx context.Context, accountID, creationID, accessToken string) error {
	url := fmt.Sprintf("%s/%s/media_publish", ig.cfg.IGAPIBaseURL, accountID)

	_, err := postJSON(ctx, url, map[string]interface{}{
		"creation_id":  creationID,
		"access_token": accessToken,
	})
	if err != nil {
		return fmt.Errorf("failed to publish container: %w", err)
	}
	return nil
}

type graphResponse struct {
	ID string `json:"id"`
}

func postJSON(ctx context.Context, url string, payload interface{}) (*graphResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, respBody)
	}

	var result graphResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &result, nil
}
