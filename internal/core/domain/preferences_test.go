package domain

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestDecodePreferences(t *testing.T) {
	cases := []struct {
		name string
		raw  *string
		want map[string]any
	}{
		{name: "nil input", raw: nil, want: map[string]any{}},
		{name: "empty string", raw: strPtr(""), want: map[string]any{}},
		{name: "whitespace only", raw: strPtr("   "), want: map[string]any{}},
		{name: "not valid data", raw: strPtr("not valid data"), want: map[string]any{}},
		{name: "json array is not an object", raw: strPtr(`[1,2,3]`), want: map[string]any{}},
		{name: "json null", raw: strPtr(`null`), want: map[string]any{}},
		{
			name: "valid object",
			raw:  strPtr(`{"theme":"dark"}`),
			want: map[string]any{"theme": "dark"},
		},
		{
			name: "nested object",
			raw:  strPtr(`{"notifications":{"email":true},"lang":"en"}`),
			want: map[string]any{"notifications": map[string]any{"email": true}, "lang": "en"},
		},
		{
			// Executable-looking input must never be evaluated, only rejected.
			name: "code-like input",
			raw:  strPtr(`(function(){return {pwned:true}})()`),
			want: map[string]any{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecodePreferences(tc.raw)
			if got == nil {
				t.Fatal("decode must never return nil")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
