package validation

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/procspawn/errors"
)

type job struct {
	Argv    []string `validate:"min=1"`
	Dir     string   `validate:"omitempty,dir"`
	Mode    string   `validate:"oneof=fast slow"`
	Labels  []string `validate:"dive,lowertag"`
	Retries int      `json:"retry_count" validate:"gte=0"`
}

type pair struct {
	A string
	B string
}

func init() {
	RegisterValidation("lowertag", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == strings.ToLower(s)
	}, "must be lower case")

	RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(pair)
		if p.A != "" && p.B != "" {
			sl.ReportError(p.B, "b", "B", "exclusive", "")
		}
	}, pair{})
	RegisterMessage("exclusive", "cannot be combined with a")
}

func TestStructValidateValid(t *testing.T) {
	j := job{Argv: []string{"ls"}, Dir: t.TempDir(), Mode: "fast", Labels: []string{"x"}}
	if err := Validate(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	j := job{Dir: "/definitely/not/here", Mode: "medium", Labels: []string{"ok", "NOPE"}, Retries: -1}
	err := Validate(j)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %s", appErr.Code)
	}

	for _, want := range []string{
		"argv: must have at least 1 items",
		"dir: must be an existing directory",
		"mode: must be one of: fast slow",
		"labels[1]: must be lower case",
		"retry_count: must be greater than or equal to 0",
	} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("expected %q in %q", want, appErr.Message)
		}
	}

	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 5 {
		t.Errorf("expected 5 field errors, got %v", appErr.Details["fields"])
	}
}

func TestStructLevelRule(t *testing.T) {
	if err := Validate(pair{A: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Validate(pair{A: "x", B: "y"})
	if err == nil {
		t.Fatal("expected struct-level error")
	}
	if !strings.Contains(err.Error(), "b: cannot be combined with a") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateNonStruct(t *testing.T) {
	err := Validate("not a struct")
	if !errors.HasCode(err, errors.ErrCodeConfigInvalid) {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("name", "John")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("name", "   ")
	if !v2.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorOneOf(t *testing.T) {
	if New().OneOf("level", "info", []string{"info", "debug"}).HasErrors() {
		t.Error("expected no error for allowed value")
	}
	if !New().OneOf("level", "loud", []string{"info", "debug"}).HasErrors() {
		t.Error("expected error for disallowed value")
	}
}

func TestValidatorRange(t *testing.T) {
	tests := []struct {
		value   float64
		wantErr bool
	}{
		{0.5, false},
		{0, false},
		{1, false},
		{-0.1, true},
		{1.5, true},
	}
	for _, tc := range tests {
		if got := New().Range("rate", tc.value, 0, 1).HasErrors(); got != tc.wantErr {
			t.Errorf("Range(%v): got error=%v, want %v", tc.value, got, tc.wantErr)
		}
	}
}

func TestValidatorChaining(t *testing.T) {
	err := New().
		Required("name", "").
		Min("retries", -1, 0).
		Check(false, "mode", "bad mode").
		Nested("logging", errors.Validation("level invalid")).
		Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, _ := errors.AsAppError(err)
	fields := appErr.Details["fields"].([]FieldError)
	if len(fields) != 4 {
		t.Errorf("expected 4 errors, got %d", len(fields))
	}
}

func TestValidatorNoErrors(t *testing.T) {
	if err := New().Required("name", "x").Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Argv":       "argv",
		"ExecPath":   "exec_path",
		"SampleRate": "sample_rate",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
