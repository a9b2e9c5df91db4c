package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/blogpress/internal/auth"
	"github.com/isdelr/blogpress/internal/models"
)

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	ListCommentsByArticle(ctx context.Context, articleID int64) ([]models.Comment, error)
	GetComment(ctx context.Context, id int64) (models.Comment, error)
	CreateComment(ctx context.Context, articleID int64, author, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, id int64, author string) error
}

// CommentService provides business logic for comment management.
type CommentService struct {
	db     *sql.DB
	events EventServiceProvider
	now    func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sql.DB, events EventServiceProvider) *CommentService {
	return &CommentService{db: db, events: events, now: time.Now}
}

const commentColumns = "id, article_id, author, content, created_date"

// ListCommentsByArticle returns an article's comments, newest first.
func (s *CommentService) ListCommentsByArticle(ctx context.Context, articleID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE article_id = ? ORDER BY id DESC", articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for article %d: %w", articleID, err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// GetComment retrieves a single comment by its ID, even if its article is gone.
func (s *CommentService) GetComment(ctx context.Context, id int64) (models.Comment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = ?", id)
	return scanComment(row)
}

// CreateComment adds a comment to an existing article. Content is trimmed;
// blank content yields ErrCommentContentEmpty and a missing article ErrNotFound.
func (s *CommentService) CreateComment(ctx context.Context, articleID int64, author, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, ErrCommentContentEmpty
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM articles WHERE id = ?", articleID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("failed to check article %d: %w", articleID, err)
	}

	comment := models.Comment{
		ArticleID:   articleID,
		Author:      author,
		Content:     content,
		CreatedDate: s.now().Truncate(time.Second),
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO comments (article_id, author, content, created_date) VALUES (?, ?, ?, ?)",
		comment.ArticleID, comment.Author, comment.Content, models.FormatTimestamp(comment.CreatedDate))
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to create comment: %w", err)
	}
	if comment.ID, err = res.LastInsertId(); err != nil {
		return models.Comment{}, fmt.Errorf("failed to read new comment id: %w", err)
	}

	recordEvent(ctx, s.events, "comment.create", "info",
		fmt.Sprintf("%s commented on article #%d.", author, articleID), author, &comment.ArticleID)
	return comment, nil
}

// DeleteComment removes a comment written by author. A missing comment yields
// ErrNotFound, someone else's comment auth.ErrForbidden.
func (s *CommentService) DeleteComment(ctx context.Context, id int64, author string) error {
	comment, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwnership(author, comment.Author); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ? AND author = ?", id, author)
	if err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	recordEvent(ctx, s.events, "comment.delete", "warn",
		fmt.Sprintf("%s deleted a comment on article #%d.", author, comment.ArticleID), author, &comment.ArticleID)
	return nil
}

func scanComment(row scanner) (models.Comment, error) {
	var (
		comment models.Comment
		created string
	)
	err := row.Scan(&comment.ID, &comment.ArticleID, &comment.Author, &comment.Content, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("failed to scan comment: %w", err)
	}
	if comment.CreatedDate, err = models.ParseTimestamp(created); err != nil {
		return models.Comment{}, fmt.Errorf("bad comment timestamp %q: %w", created, err)
	}
	return comment, nil
}
