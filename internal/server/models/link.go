// Package models defines server-side data models persisted in the database.
package models

import "time"

// UserLink records which remote account a local user is connected to.
type UserLink struct {
	UserID       int64
	RemoteUserID int64
	UpdatedAt    time.Time
}
