package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/blogpress/internal/models"
)

// ArticleServiceProvider defines the interface for article services.
type ArticleServiceProvider interface {
	ListArticles(ctx context.Context) ([]models.Article, error)
	ListArticlesByAuthor(ctx context.Context, author string) ([]models.Article, error)
	GetArticle(ctx context.Context, id int64) (models.Article, error)
	GetArticleByAuthor(ctx context.Context, id int64, author string) (models.Article, error)
	CreateArticle(ctx context.Context, author, title, content string) (models.Article, error)
	UpdateArticle(ctx context.Context, id int64, author, title, content string) error
	DeleteArticle(ctx context.Context, id int64, author string) error
}

// ArticleService provides business logic for article management.
type ArticleService struct {
	db     *sql.DB
	events EventServiceProvider
	now    func() time.Time
}

// NewArticleService creates a new ArticleService.
func NewArticleService(db *sql.DB, events EventServiceProvider) *ArticleService {
	return &ArticleService{db: db, events: events, now: time.Now}
}

const articleColumns = "id, title, author, content, created_date"

// ListArticles returns every article in storage order.
func (s *ArticleService) ListArticles(ctx context.Context) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+articleColumns+" FROM articles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ListArticlesByAuthor returns the articles written by author.
func (s *ArticleService) ListArticlesByAuthor(ctx context.Context, author string) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE author = ? ORDER BY id", author)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles for %s: %w", author, err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetArticle retrieves a single article by its ID.
func (s *ArticleService) GetArticle(ctx context.Context, id int64) (models.Article, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE id = ?", id)
	return scanArticle(row)
}

// GetArticleByAuthor retrieves an article only if author wrote it. A missing
// article and someone else's article both yield ErrNotFound.
func (s *ArticleService) GetArticleByAuthor(ctx context.Context, id int64, author string) (models.Article, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE id = ? AND author = ?", id, author)
	return scanArticle(row)
}

// CreateArticle stores a new article stamped with the current time.
func (s *ArticleService) CreateArticle(ctx context.Context, author, title, content string) (models.Article, error) {
	article := models.Article{
		Title:       title,
		Author:      author,
		Content:     content,
		CreatedDate: s.now().Truncate(time.Second),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO articles (title, author, content, created_date) VALUES (?, ?, ?, ?)",
		article.Title, article.Author, article.Content, models.FormatTimestamp(article.CreatedDate))
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to create article: %w", err)
	}
	if article.ID, err = res.LastInsertId(); err != nil {
		return models.Article{}, fmt.Errorf("failed to read new article id: %w", err)
	}

	recordEvent(ctx, s.events, "article.create", "info",
		fmt.Sprintf("%s published '%s'.", author, title), author, &article.ID)
	return article, nil
}

// UpdateArticle replaces title and content of an article owned by author.
// Anything else, missing or foreign, yields ErrNotFound.
func (s *ArticleService) UpdateArticle(ctx context.Context, id int64, author, title, content string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE articles SET title = ?, content = ? WHERE id = ? AND author = ?",
		title, content, id, author)
	if err != nil {
		return fmt.Errorf("failed to update article %d: %w", id, err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	recordEvent(ctx, s.events, "article.update", "info",
		fmt.Sprintf("%s updated '%s'.", author, title), author, &id)
	return nil
}

// DeleteArticle removes an article owned by author. Its comments are kept.
func (s *ArticleService) DeleteArticle(ctx context.Context, id int64, author string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ? AND author = ?", id, author)
	if err != nil {
		return fmt.Errorf("failed to delete article %d: %w", id, err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	recordEvent(ctx, s.events, "article.delete", "warn",
		fmt.Sprintf("%s deleted article #%d.", author, id), author, &id)
	return nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanArticles is a helper function to scan multiple rows into a slice of Articles.
func scanArticles(rows *sql.Rows) ([]models.Article, error) {
	articles := []models.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}
	return articles, nil
}

// scanArticle is a helper function to scan a single row into an Article struct.
func scanArticle(row scanner) (models.Article, error) {
	var (
		article models.Article
		created string
	)
	err := row.Scan(&article.ID, &article.Title, &article.Author, &article.Content, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Article{}, ErrNotFound
		}
		return models.Article{}, fmt.Errorf("failed to scan article: %w", err)
	}
	if article.CreatedDate, err = models.ParseTimestamp(created); err != nil {
		return models.Article{}, fmt.Errorf("bad article timestamp %q: %w", created, err)
	}
	return article, nil
}
