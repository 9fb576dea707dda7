package models

import "time"

// DefaultBookmarkCategory is used when a bookmark is created without one.
const DefaultBookmarkCategory = "General"

type Bookmark struct {
	ID           string    `bson:"_id" json:"id"`
	UserEmail    string    `bson:"user_email" json:"user_email"`
	ResourceType Kind      `bson:"resource_type" json:"resource_type"`
	ResourceID   string    `bson:"resource_id" json:"resource_id"`
	Category     string    `bson:"category" json:"category"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
