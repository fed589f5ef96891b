package model

import "time"

// Owner is the identity an asset belongs to. The user-management system that
// issues owners lives elsewhere; this record only carries what the asset
// tables reference.
type Owner struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
