package normalize

import (
	"reflect"
	"testing"
)

func TestStringRules(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"username keeps case", Username, "  Iron_Mike\t", "Iron_Mike"},
		{"username blank", Username, "   ", ""},
		{"email keeps case", Email, " Rocky@Example.com ", "Rocky@Example.com"},
		{"name trims", Name, "\n Ring Side ", "Ring Side"},
		{"keyword lowercases", Keyword, "  Pending ", "pending"},
		{"keyword role", Keyword, "CHALLENGER", "challenger"},
		{"query param trims only", QueryParam, " Muay Thai ", "Muay Thai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", []string{}},
		{"Boxing", []string{"Boxing"}},
		{" Boxing , Muay Thai,,Judo ", []string{"Boxing", "Muay Thai", "Judo"}},
		{"https://a.example, https://b.example", []string{"https://a.example", "https://b.example"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := List(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("List(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}
