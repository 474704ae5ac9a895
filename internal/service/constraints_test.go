package service

import (
	"testing"

	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specsOf(n int) []models.MediaSpec {
	specs := make([]models.MediaSpec, n)
	for i := range specs {
		specs[i] = models.MediaSpec{MediaID: int64(i + 1), CropMode: "original"}
	}
	return specs
}

func TestValidateComposition(t *testing.T) {
	ig := &models.SocialAccount{ID: 1, Platform: models.PlatformInstagram, AccountUsername: "ig1"}
	fb := &models.SocialAccount{ID: 2, Platform: models.PlatformFacebook, AccountUsername: "fb1"}

	t.Run("rejects empty media regardless of targets", func(t *testing.T) {
		err := ValidateComposition([]*models.SocialAccount{fb}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects 11 items with a carousel target", func(t *testing.T) {
		err := ValidateComposition([]*models.SocialAccount{fb, ig}, specsOf(11))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "ig1")
	})

	t.Run("accepts 10 items with a carousel target", func(t *testing.T) {
		require.NoError(t, ValidateComposition([]*models.SocialAccount{ig}, specsOf(10)))
	})

	t.Run("accepts 11 items when no carousel target is present", func(t *testing.T) {
		require.NoError(t, ValidateComposition([]*models.SocialAccount{fb}, specsOf(11)))
	})

	t.Run("is idempotent", func(t *testing.T) {
		targets := []*models.SocialAccount{ig, fb}
		specs := specsOf(3)
		require.NoError(t, ValidateComposition(targets, specs))
		require.NoError(t, ValidateComposition(targets, specs))
	})
}
