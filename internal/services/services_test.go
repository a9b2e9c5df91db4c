package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/blogpress/internal/database/dbtest"
	"github.com/isdelr/blogpress/internal/models"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db       *sql.DB
	pub      *recordingPublisher
	events   *EventService
	users    *UserService
	articles *ArticleService
	comments *CommentService
}

var fixedNow = time.Date(2024, 5, 17, 14, 30, 5, 0, time.Local)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	pub := &recordingPublisher{}
	events := NewEventService(db, pub)
	f := &fixture{
		db:       db,
		pub:      pub,
		events:   events,
		users:    NewUserService(db, events),
		articles: NewArticleService(db, events),
		comments: NewCommentService(db, events),
	}
	clock := func() time.Time { return fixedNow }
	f.events.now = clock
	f.articles.now = clock
	f.comments.now = clock
	return f
}

func (f *fixture) article(t *testing.T, author string) models.Article {
	t.Helper()
	a, err := f.articles.CreateArticle(context.Background(), author, "A title", "Some long enough content")
	require.NoError(t, err)
	return a
}

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}
