package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleService_CreateAndRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.articles.CreateArticle(ctx, "ada", "Hello", "World content here")
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.True(t, a.CreatedDate.Equal(fixedNow))

	var stored string
	require.NoError(t, f.db.QueryRow("SELECT created_date FROM articles WHERE id = ?", a.ID).Scan(&stored))
	assert.Equal(t, "2024-05-17 14:30:05", stored)

	got, err := f.articles.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = f.articles.GetArticle(ctx, a.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArticleService_Listing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	all, err := f.articles.ListArticles(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	a1 := f.article(t, "ada")
	b1 := f.article(t, "bob")
	a2 := f.article(t, "ada")

	all, err = f.articles.ListArticles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{a1.ID, b1.ID, a2.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	mine, err := f.articles.ListArticlesByAuthor(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, a := range mine {
		assert.Equal(t, "ada", a.Author)
	}

	none, err := f.articles.ListArticlesByAuthor(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestArticleService_OwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.article(t, "ada")

	_, err := f.articles.GetArticleByAuthor(ctx, a.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := f.articles.GetArticleByAuthor(ctx, a.ID, "ada")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	err = f.articles.UpdateArticle(ctx, a.ID, "bob", "Hijacked", "Overwritten content")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err = f.articles.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A title", got.Title)

	err = f.articles.DeleteArticle(ctx, a.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.articles.GetArticle(ctx, a.ID)
	assert.NoError(t, err, "article survives a foreign delete")

	require.NoError(t, f.articles.UpdateArticle(ctx, a.ID, "ada", "New title", "Brand new content"))
	got, err = f.articles.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, "Brand new content", got.Content)
	assert.True(t, got.CreatedDate.Equal(a.CreatedDate), "update keeps the creation date")

	require.NoError(t, f.articles.DeleteArticle(ctx, a.ID, "ada"))
	_, err = f.articles.GetArticle(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.articles.DeleteArticle(ctx, a.ID, "ada"), ErrNotFound)
	assert.Equal(t, []string{"article.create", "article.update", "article.delete"}, f.pub.types())
}

func TestArticleService_DBErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewArticleService(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, author, content, created_date FROM articles ORDER BY id")).
		WillReturnError(errors.New("boom"))
	_, err = svc.ListArticles(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list articles")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, author, content, created_date FROM articles WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author", "content", "created_date"}).
			AddRow(7, "t", "ada", "c", "yesterday"))
	_, err = svc.GetArticle(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM articles WHERE id = ? AND author = ?")).
		WithArgs(int64(7), "ada").
		WillReturnError(errors.New("locked"))
	err = svc.DeleteArticle(context.Background(), 7, "ada")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
