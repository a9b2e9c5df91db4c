// Package forms decodes and validates the HTML forms posted to the blog.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/blogpress/internal/services"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form name so messages line up with inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// maxbytes bounds the encoded length, unlike max which counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Name     string `form:"name" validate:"min=4"`
	Username string `form:"username" validate:"min=2,max=25"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,maxbytes=72,eqfield=Confirm"`
	Confirm  string `form:"confirm"`
}

// LoginForm is the sign-in form. It is not validated beyond lookup.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// ArticleForm is used for both creating and editing articles.
type ArticleForm struct {
	Title   string `form:"title" validate:"min=5,max=100"`
	Content string `form:"content" validate:"min=10"`
}

// DecodeRegister reads a RegisterForm from a POST body.
func DecodeRegister(r *http.Request) (RegisterForm, error) {
	if err := r.ParseForm(); err != nil {
		return RegisterForm{}, err
	}
	return RegisterForm{
		Name:     r.PostFormValue("name"),
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}, nil
}

// DecodeLogin reads a LoginForm from a POST body.
func DecodeLogin(r *http.Request) (LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return LoginForm{}, err
	}
	return LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}, nil
}

// DecodeArticle reads an ArticleForm from a POST body.
func DecodeArticle(r *http.Request) (ArticleForm, error) {
	if err := r.ParseForm(); err != nil {
		return ArticleForm{}, err
	}
	return ArticleForm{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
	}, nil
}

// Validate checks form against its rules. It returns nil or a
// *services.ValidationError keyed by form field name.
func Validate(form interface{}) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &services.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := verr.Fields[fe.Field()]; !seen {
			verr.Fields[fe.Field()] = message(fe)
		}
	}
	return verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("Must be at most %s bytes long.", fe.Param())
	case "email":
		return "Please enter a valid email address."
	case "eqfield":
		return "Passwords do not match."
	default:
		return "Invalid value."
	}
}
