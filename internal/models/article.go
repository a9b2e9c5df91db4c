package models

import "time"

// TimestampLayout is the text format of created_date columns.
const TimestampLayout = "2006-01-02 15:04:05"

// Article is a blog post. Author holds the writer's username by value.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	CreatedDate time.Time `json:"createdDate"`
}

// FormatTimestamp renders t in the stored created_date format.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a stored created_date value.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
