// Package validation provides input validation utilities decoupled from the
// persistence layer: every form is checked into a Result before any store
// call happens.
package validation

import (
	"fmt"
	"strings"
	"unicode"
)

// Result is the outcome of validating a form: either OK or a set of
// field-level error messages.
type Result struct {
	Errors map[string]string
}

// OK reports whether the form passed validation.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(field, message string) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[field] = message
}

// PostForm carries the user-editable fields of a post.
type PostForm struct {
	Text      string `json:"text" form:"text"`
	GroupSlug string `json:"group" form:"group"`
	ImageURL  string `json:"image_url" form:"image_url"`
}

// Validate checks the post form. Text is the only required field.
func (f PostForm) Validate() Result {
	var r Result
	if strings.TrimSpace(f.Text) == "" {
		r.addError("text", "Text is required")
	}
	return r
}

// CommentForm carries the user-editable fields of a comment.
type CommentForm struct {
	Text string `json:"text" form:"text"`
}

// Validate checks the comment form.
func (f CommentForm) Validate() Result {
	var r Result
	if strings.TrimSpace(f.Text) == "" {
		r.addError("text", "Text is required")
	}
	return r
}

// ValidatePassword checks if a password meets the signup requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	hasLetter := false
	hasDigit := false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain at least one letter and one digit")
	}
	return nil
}
