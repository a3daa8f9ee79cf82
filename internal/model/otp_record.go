package model

import "time"

// OtpRecord is one issued code. ID is assigned by the store and only orders
// records; the latest issuance for an (email, code) pair wins.
type OtpRecord struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *OtpRecord) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}
