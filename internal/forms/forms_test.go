package forms

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/isdelr/blogpress/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, services.ErrValidation)
	verr, ok := err.(*services.ValidationError)
	require.True(t, ok)
	return verr.Fields
}

func TestValidate_Register(t *testing.T) {
	valid := RegisterForm{Name: "Ada Lovelace", Username: "ada", Email: "ada@x.com", Password: "pw1234", Confirm: "pw1234"}
	assert.NoError(t, Validate(valid))

	tests := []struct {
		name  string
		edit  func(f *RegisterForm)
		field string
	}{
		{"short name", func(f *RegisterForm) { f.Name = "Ada" }, "name"},
		{"short username", func(f *RegisterForm) { f.Username = "a" }, "username"},
		{"long username", func(f *RegisterForm) { f.Username = strings.Repeat("a", 26) }, "username"},
		{"bad email", func(f *RegisterForm) { f.Email = "ada-at-x" }, "email"},
		{"empty email", func(f *RegisterForm) { f.Email = "" }, "email"},
		{"empty password", func(f *RegisterForm) { f.Password, f.Confirm = "", "" }, "password"},
		{"mismatch", func(f *RegisterForm) { f.Confirm = "pw9999" }, "password"},
		{"password over 72 bytes", func(f *RegisterForm) {
			f.Password = strings.Repeat("p", 73)
			f.Confirm = f.Password
		}, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := valid
			tc.edit(&f)
			fields := fieldErrors(t, Validate(f))
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestValidate_RegisterBoundaries(t *testing.T) {
	f := RegisterForm{Name: "Adam", Username: "ab", Email: "a@b.co", Password: "x", Confirm: "x"}
	assert.NoError(t, Validate(f))
	f.Username = strings.Repeat("z", 25)
	assert.NoError(t, Validate(f))
	// Lengths count characters, not bytes.
	f.Name = "Şükrü"
	assert.NoError(t, Validate(f))

	f.Password = strings.Repeat("p", 72)
	f.Confirm = f.Password
	assert.NoError(t, Validate(f))
	// 37 two-byte runes pass a rune count but not bcrypt's byte limit.
	f.Password = strings.Repeat("ş", 37)
	f.Confirm = f.Password
	fields := fieldErrors(t, Validate(f))
	assert.Equal(t, "Must be at most 72 bytes long.", fields["password"])
}

func TestValidate_Article(t *testing.T) {
	assert.NoError(t, Validate(ArticleForm{Title: "Hello", Content: "World content here"}))

	fields := fieldErrors(t, Validate(ArticleForm{Title: "Hi", Content: "short"}))
	assert.Equal(t, "Must be at least 5 characters long.", fields["title"])
	assert.Equal(t, "Must be at least 10 characters long.", fields["content"])

	fields = fieldErrors(t, Validate(ArticleForm{Title: strings.Repeat("t", 101), Content: "long enough content"}))
	assert.Equal(t, "Must be at most 100 characters long.", fields["title"])
}

func TestDecodeRegister(t *testing.T) {
	body := url.Values{
		"name": {"Ada Lovelace"}, "username": {"ada"}, "email": {"ada@x.com"},
		"password": {"pw1234"}, "confirm": {"pw1234"},
	}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f, err := DecodeRegister(req)
	require.NoError(t, err)
	assert.Equal(t, RegisterForm{Name: "Ada Lovelace", Username: "ada", Email: "ada@x.com", Password: "pw1234", Confirm: "pw1234"}, f)
}
