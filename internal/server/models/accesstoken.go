package models

import "time"

// AccessToken is a user's connection token. Only the secret half is kept,
// sealed with the server master key.
type AccessToken struct {
	UserID       int64
	SealedSecret []byte
	Nonce        []byte
	CreatedAt    time.Time
}
