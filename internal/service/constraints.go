package service

import (
	"fmt"

	"github.com/campfirehq/socialqueue/internal/models"
)

// ValidateComposition enforces per-platform limits on a composition before it
// is accepted, and again right before execution: the account set or its
// platform classification can change between submission and run time, so the
// check must be re-runnable and side-effect free.
//
// Rules:
//   - a composition with zero media items is always rejected
//   - carousel-family targets cap the media count at models.MaxCarouselItems
//
// Target presence is the caller's responsibility; an empty target list never
// reaches this function.
func ValidateComposition(targets []*models.SocialAccount, specs []models.MediaSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: post has no media", ErrValidation)
	}

	for _, acc := range targets {
		if models.IsCarouselPlatform(acc.Platform) && len(specs) > models.MaxCarouselItems {
			return fmt.Errorf("%w: %s account %q accepts at most %d media items, got %d",
				ErrValidation, acc.Platform, acc.AccountUsername, models.MaxCarouselItems, len(specs))
		}
	}

	return nil
}
