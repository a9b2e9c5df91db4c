package models

import "time"

// Comment is a reader's reply to an article.
type Comment struct {
	ID          int64     `json:"id"`
	ArticleID   int64     `json:"articleId"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	CreatedDate time.Time `json:"createdDate"`
}
