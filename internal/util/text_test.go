package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkdown(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "This is **bold** text", "This is bold text"},
		{"italic", "This is *italic* text", "This is italic text"},
		{"heading", "# Heading\nBody text", "Heading\nBody text"},
		{"inline code", "Use `fmt.Println` here", "Use fmt.Println here"},
		{"bullet", "- first point\n- second point", "first point\nsecond point"},
		{"numbered", "1. one\n2. two", "one\ntwo"},
		{"plain", "Already plain text.", "Already plain text."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripMarkdown(tc.in))
		})
	}
}

func TestStripMarkdownIdempotent(t *testing.T) {
	in := "# Title\n\n**Bold** and *italic* with `code`\n\n- a bullet"
	once := StripMarkdown(in)
	twice := StripMarkdown(once)
	assert.Equal(t, once, twice)
}

func TestExtractJSONArray(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		raw := `[{"q": "What is Go?", "options": ["a", "b"], "correct": 0}]`
		assert.Equal(t, raw, ExtractJSONArray(raw))
	})

	t.Run("fenced array", func(t *testing.T) {
		raw := "```json\n[{\"q\": \"x\", \"options\": [\"a\", \"b\"], \"correct\": 1}]\n```"
		got := ExtractJSONArray(raw)
		var parsed []map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(got), &parsed))
		assert.Len(t, parsed, 1)
	})

	t.Run("surrounded by prose", func(t *testing.T) {
		raw := "Here are your questions:\n[{\"q\": \"x\", \"options\": [\"a\"], \"correct\": 0}]\nGood luck!"
		got := ExtractJSONArray(raw)
		assert.Equal(t, `[{"q": "x", "options": ["a"], "correct": 0}]`, got)
	})

	t.Run("no array present", func(t *testing.T) {
		assert.Equal(t, "", ExtractJSONArray("Sorry, I cannot generate a quiz."))
	})

	t.Run("array of scalars ignored", func(t *testing.T) {
		assert.Equal(t, "", ExtractJSONArray("[1, 2, 3]"))
	})
}
