package validate

import (
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
	Qty   int    `json:"qty" validate:"gt=0"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Email: "nope", Qty: 0})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
	if details["email"] != "must be a valid email" {
		t.Fatalf("unexpected email detail %q", details["email"])
	}
	if details["name"] != "is required" {
		t.Fatalf("unexpected name detail %q", details["name"])
	}
	if details["qty"] != "must be greater than 0" {
		t.Fatalf("unexpected qty detail %q", details["qty"])
	}
}

func TestStructAcceptsValid(t *testing.T) {
	if err := Struct(sample{Email: "a@b.co", Name: "x", Qty: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVar(t *testing.T) {
	if err := Var("email", "a@b.co", "required,email"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Var("email", "", "required,email")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if pkgerrors.As(err).Message() != "email is required" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  abcdef ", 3); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString(" x ", 0); got != "x" {
		t.Fatalf("unexpected %q", got)
	}
}
