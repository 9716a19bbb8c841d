package convert

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare object", input: `{"a": 1}`, want: `{"a": 1}`},
		{name: "json fence", input: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "plain fence", input: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "surrounding whitespace", input: "  \n```json\n{\"a\": 1}\n```\n  ", want: `{"a": 1}`},
		{name: "fence without newline", input: "```json{\"a\": 1}```", want: `{"a": 1}`},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.input); got != tt.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject("```json\n{\"name\": \"Sprocket\", \"price\": 9.99}\n```")
	if err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if obj["name"] != "Sprocket" {
		t.Fatalf("name = %v", obj["name"])
	}
	if obj["price"] != 9.99 {
		t.Fatalf("price = %v", obj["price"])
	}
}

func TestDecodeObjectRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "prose", input: "Sure! Here is the JSON you asked for."},
		{name: "array", input: `[1, 2, 3]`},
		{name: "truncated", input: `{"name": "Sprock`},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeObject(tt.input); err == nil {
				t.Fatalf("DecodeObject(%q) should fail", tt.input)
			}
		})
	}
}
