// Package editor holds the goal and roadmap editing workflows. Each editor
// keeps a working copy that is only persisted on an explicit save.
package editor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"careerplan/internal/util"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation marks a form that failed its required-field checks.
	ErrValidation = errors.New("validation failed")
	// ErrNoIdentity is returned when saving without a signed-in user.
	ErrNoIdentity = errors.New("user not found")
	// ErrSaveFailed wraps store and callback failures. The editor stays open.
	ErrSaveFailed = errors.New("save failed")
	// ErrNotOpen is returned by actions on a closed editor.
	ErrNotOpen = errors.New("editor is not open")
	// ErrInvalidState is returned by actions not available in the current state.
	ErrInvalidState = errors.New("action not available in current state")
)

// ValidationError lists the offending form fields.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func validateForm(form any, message string) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Message: message, Fields: fields}
}

func defaultClock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func defaultIDs(newID func(prefix string) string) func(prefix string) string {
	if newID == nil {
		return util.NewPrefixedID
	}
	return newID
}

// tagInput is the pending text box next to a tag list (tech stack, skills).
type tagInput struct {
	pending string
}

// commit appends the trimmed pending text to list and clears it.
// Blank input leaves both untouched.
func (t *tagInput) commit(list []string) ([]string, bool) {
	v := strings.TrimSpace(t.pending)
	if v == "" {
		return list, false
	}
	t.pending = ""
	return append(list, v), true
}

func removeAt(list []string, i int) ([]string, bool) {
	if i < 0 || i >= len(list) {
		return list, false
	}
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...), true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
