package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUserNotFound        = errors.New("no such user")
	ErrWrongPassword       = errors.New("wrong password")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrCommentContentEmpty = errors.New("comment content is empty")
	ErrValidation          = errors.New("validation failed")
)

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return ErrValidation.Error() + ": " + strings.Join(names, ", ")
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
