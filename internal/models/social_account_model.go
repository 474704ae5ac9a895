package models

import (
	"time"
)

// SocialAccount is a connected destination a post can be published to.
// Rows are owned by the account directory; this service only reads them.
type SocialAccount struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	Platform        string    `db:"platform" json:"platform"`
	AccountID       string    `db:"account_id" json:"account_id"`
	AccountName     string    `db:"account_name" json:"account_name"`
	AccountUsername string    `db:"account_username" json:"account_username"`
	ProfilePicture  string    `db:"profile_picture_url" json:"profile_picture"`
	AccessToken     string    `db:"access_token" json:"-"`
	AccountStatus   string    `db:"account_status" json:"account_status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"

	AccountStatusConnected    = "connected"
	AccountStatusDisconnected = "disconnected"
)

// MaxCarouselItems is the hard item limit of carousel-family platforms.
const MaxCarouselItems = 10

// IsCarouselPlatform reports whether the platform posts media as a single
// carousel unit with a maximum item count.
func IsCarouselPlatform(platform string) bool {
	return platform == PlatformInstagram
}
