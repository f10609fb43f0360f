package inputval

import (
	"strings"
	"testing"

	"github.com/dalemusser/stratafight/internal/app/system/apperr"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		// Valid emails
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"user123@example.co.uk", true},

		// Invalid emails
		{"", false},
		{"   ", false},
		{"notanemail", false},
		{"@example.com", false},
		{"user@", false},
		{"user@.com", false},
		{"user example.com", false},
		{"user@@example.com", false},
		{"Name <user@example.com>", false}, // ParseAddress accepts this but we want bare email
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		// Valid URLs
		{"http://example.com", true},
		{"https://example.com", true},
		{"https://example.com/path", true},
		{"https://example.com/path?query=value", true},
		{"https://subdomain.example.com", true},
		{"http://localhost:8080", true},

		// Invalid URLs
		{"", false},
		{"   ", false},
		{"example.com", false},          // No scheme
		{"ftp://example.com", false},    // Wrong scheme
		{"file:///path/to/file", false}, // Wrong scheme
		{"javascript:alert(1)", false},  // Wrong scheme
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := IsValidHTTPURL(tt.url)
			if got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		// Valid ObjectIDs (24 hex characters)
		{"507f1f77bcf86cd799439011", true},
		{"000000000000000000000000", true},
		{"ffffffffffffffffffffffff", true},

		// Invalid ObjectIDs
		{"", false},
		{"   ", false},
		{"507f1f77bcf86cd79943901", false},   // Too short (23 chars)
		{"507f1f77bcf86cd7994390111", false}, // Too long (25 chars)
		{"507f1f77bcf86cd79943901g", false},  // Invalid hex char
		{"not-an-object-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := IsValidObjectID(tt.id)
			if got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"iron_mike", true},
		{"Rocky-1976", true},
		{"ali.g", true},
		{"abc", true},

		{"", false},
		{"ab", false},
		{"has space", false},
		{"toolongusernamethatexceedsthirty", false},
		{"emoji🥊", false},
		{"<script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			got := IsValidUsername(tt.username)
			if got != tt.want {
				t.Errorf("IsValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type TestInput struct {
		Name  string `validate:"required" label:"Name"`
		Email string `validate:"required,email" label:"Email"`
	}

	tests := []struct {
		name      string
		input     TestInput
		wantError bool
	}{
		{
			name:      "valid input",
			input:     TestInput{Name: "John", Email: "john@example.com"},
			wantError: false,
		},
		{
			name:      "missing name",
			input:     TestInput{Name: "", Email: "john@example.com"},
			wantError: true,
		},
		{
			name:      "missing email",
			input:     TestInput{Name: "John", Email: ""},
			wantError: true,
		},
		{
			name:      "invalid email",
			input:     TestInput{Name: "John", Email: "notanemail"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)
			if tt.wantError && !result.HasErrors() {
				t.Errorf("Validate() expected errors, got none")
			}
			if !tt.wantError && result.HasErrors() {
				t.Errorf("Validate() expected no errors, got: %s", result.First())
			}
		})
	}
}

func TestResult(t *testing.T) {
	r := &Result{}
	if r.HasErrors() || r.First() != "" || r.All() != "" {
		t.Errorf("empty result = %+v", r)
	}

	r.Add("password", "Password must not contain your username.")
	r.Merge(&Result{Errors: []FieldError{{Field: "email", Label: "Email", Message: "Email is required."}}})
	r.Merge(nil)

	if !r.HasErrors() || len(r.Errors) != 2 {
		t.Fatalf("errors = %+v, want 2", r.Errors)
	}
	if got := r.First(); got != "Password must not contain your username." {
		t.Errorf("First() = %q", got)
	}
	if got, want := r.All(), "Password must not contain your username.; Email is required."; got != want {
		t.Errorf("All() = %q, want %q", got, want)
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type input struct {
		Username string `json:"username" validate:"username" label:"Username"`
		Class    string `json:"weight_class" validate:"weightclass" label:"Weight class"`
		Style    string `json:"style" validate:"fightingstyle" label:"Fighting style"`
		Website  string `json:"website" validate:"httpurl" label:"Website"`
		FightID  string `json:"fight_id" validate:"objectid" label:"Fight"`
	}
	valid := input{
		Username: "iron_mike",
		Class:    "Light Heavyweight",
		Style:    "Muay Thai",
		Website:  "https://example.com/fighter",
		FightID:  "507f1f77bcf86cd799439011",
	}
	tests := []struct {
		name      string
		mutate    func(*input)
		wantField string
	}{
		{name: "all valid", mutate: func(*input) {}},
		{name: "optional fields empty", mutate: func(in *input) { in.Class, in.Website, in.FightID = "", "", "" }},
		{name: "short username", mutate: func(in *input) { in.Username = "x" }, wantField: "username"},
		{name: "unknown class", mutate: func(in *input) { in.Class = "Superheavy" }, wantField: "weight_class"},
		{name: "unknown style", mutate: func(in *input) { in.Style = "Capoeira" }, wantField: "style"},
		{name: "ftp website", mutate: func(in *input) { in.Website = "ftp://example.com" }, wantField: "website"},
		{name: "bad fight id", mutate: func(in *input) { in.FightID = "fight-1" }, wantField: "fight_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			res := Validate(in)
			if tt.wantField == "" {
				if res.HasErrors() {
					t.Errorf("unexpected errors: %s", res.All())
				}
				return
			}
			if len(res.Errors) != 1 || res.Errors[0].Field != tt.wantField {
				t.Errorf("errors = %+v, want one on %s", res.Errors, tt.wantField)
			}
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	type input struct {
		DisplayName string `json:"display_name" validate:"required" label:"Display name"`
		Bio         string `validate:"max=5"`
	}
	res := Validate(&input{Bio: "too long"})
	byField := map[string]string{}
	for _, e := range res.Errors {
		byField[e.Field] = e.Message
	}
	if got := byField["display_name"]; got != "Display name is required." {
		t.Errorf("labelled message = %q", got)
	}
	// Without a label or json tag the Go field name is used.
	if got := byField["Bio"]; !strings.HasPrefix(got, "Bio ") {
		t.Errorf("unlabelled message = %q", got)
	}

	if Validate("not a struct") == nil {
		t.Error("Validate() of a non-struct must return a result")
	}
}

func TestResult_AppError(t *testing.T) {
	r := &Result{}
	if err := r.AppError(); err != nil {
		t.Errorf("AppError() on empty result = %v, want nil", err)
	}

	r.Add("email", "A valid email address is required.")
	r.Merge(&Result{Errors: []FieldError{{Field: "username", Message: "Username is required."}}})

	e, ok := apperr.As(r.AppError())
	if !ok {
		t.Fatal("AppError() did not return an *apperr.Error")
	}
	if e.Code != apperr.CodeValidation {
		t.Errorf("Code = %q, want %q", e.Code, apperr.CodeValidation)
	}
	if len(e.Fields) != 2 || e.Fields[1].Field != "username" {
		t.Errorf("Fields = %+v, want email then username", e.Fields)
	}
	if e.Message != "A valid email address is required." {
		t.Errorf("Message = %q, want first field message", e.Message)
	}
}

func TestParseObjectID(t *testing.T) {
	if _, err := ParseObjectID(" 507f1f77bcf86cd799439011 ", "id"); err != nil {
		t.Errorf("ParseObjectID(valid) error = %v", err)
	}
	_, err := ParseObjectID("not-an-id", "challenged_id")
	if !apperr.Is(err, apperr.CodeInvalidID) {
		t.Fatalf("ParseObjectID(invalid) error = %v, want %s", err, apperr.CodeInvalidID)
	}
	if e, _ := apperr.As(err); e.Message != "challenged_id is not a valid ID" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestPositiveIntAndNumber(t *testing.T) {
	res := &Result{}
	if got := PositiveInt(res, "page", ""); got != 0 {
		t.Errorf("PositiveInt(empty) = %d, want 0", got)
	}
	if got := PositiveInt(res, "page", " 3 "); got != 3 {
		t.Errorf("PositiveInt(3) = %d", got)
	}
	if got := Number(res, "weight", "70.5"); got == nil || *got != 70.5 {
		t.Errorf("Number(70.5) = %v", got)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.All())
	}

	PositiveInt(res, "limit", "0")
	PositiveInt(res, "page", "two")
	Number(res, "height", "tall")
	if len(res.Errors) != 3 {
		t.Errorf("errors = %+v, want 3", res.Errors)
	}
}
