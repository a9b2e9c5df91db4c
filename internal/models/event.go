package models

import "time"

// Event represents a loggable action in the blog, e.g. a new article or comment.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "article.create", "comment.delete"
	Level     string    `json:"level"` // e.g., "info", "warn"
	Message   string    `json:"message"`
	Actor     string    `json:"actor"`
	ArticleID *int64    `json:"articleId,omitempty"` // Nullable for user-level events
	CreatedAt time.Time `json:"createdAt"`
}
