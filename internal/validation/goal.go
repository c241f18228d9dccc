package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GoalInput is the free text supplied when creating a goal.
type GoalInput struct {
	Title           string   `validate:"max=100"`
	Description     string   `validate:"max=500"`
	MilestoneTitles []string `validate:"max=10,dive,max=100"`
}

// NotesInput is the free text supplied when verifying a goal.
type NotesInput struct {
	Notes string `validate:"max=200"`
}

// Normalize returns s in Unicode NFC form. Lengths are measured on the
// normalized text, so "é" counts as one character however it was typed.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// ValidateGoal normalizes the input in place and checks its bounds.
func ValidateGoal(in *GoalInput) error {
	in.Title = Normalize(in.Title)
	in.Description = Normalize(in.Description)
	for i, title := range in.MilestoneTitles {
		in.MilestoneTitles[i] = Normalize(title)
	}

	return check(in)
}

// ValidateNotes normalizes the notes in place and checks their bound.
func ValidateNotes(in *NotesInput) error {
	in.Notes = Normalize(in.Notes)
	return check(in)
}

func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fieldName(fe)
	if fe.Tag() != "max" {
		return fmt.Sprintf("%s is invalid", field)
	}

	if fe.Kind().String() == "slice" {
		return fmt.Sprintf("%s has too many entries (max %s)", field, fe.Param())
	}
	return fmt.Sprintf("%s is too long (max %s characters)", field, fe.Param())
}

func fieldName(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Title":
		return "title"
	case "Description":
		return "description"
	case "MilestoneTitles":
		return "milestone titles"
	case "Notes":
		return "verification notes"
	}

	// dive errors are reported per element, e.g. MilestoneTitles[3]
	if strings.HasPrefix(fe.StructField(), "MilestoneTitles[") {
		return "milestone title " + strings.TrimPrefix(fe.StructField(), "MilestoneTitles")
	}
	return fe.Field()
}
