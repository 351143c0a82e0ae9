package models

import "time"

// LinkedInConnection holds an OAuth connection for a user. AccessToken is
// stored AES-GCM encrypted; decryption happens just before an API call.
type LinkedInConnection struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	ProfileID      string    `db:"profile_id" json:"profile_id"`
	ProfileName    string    `db:"profile_name" json:"profile_name"`
	ProfileEmail   string    `db:"profile_email" json:"profile_email"`
	ProfilePicture string    `db:"profile_picture_url" json:"profile_picture"`
	AccessToken    string    `db:"access_token" json:"-"`
	Scope          string    `db:"scope" json:"scope"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	LastValidated  time.Time `db:"last_validated" json:"last_validated"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
