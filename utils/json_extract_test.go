package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "bare array",
			in:   `[1, 2, 3]`,
			want: `[1, 2, 3]`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "plain fence",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "surrounding prose",
			in:   `Here is the result: {"a": {"b": 2}} hope that helps!`,
			want: `{"a": {"b": 2}}`,
		},
		{
			name: "braces inside strings",
			in:   `{"text": "use } and { freely", "n": 1}`,
			want: `{"text": "use } and { freely", "n": 1}`,
		},
		{
			name: "escaped quote inside string",
			in:   `{"text": "she said \"}\"", "n": 1}`,
			want: `{"text": "she said \"}\"", "n": 1}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"no structured data here",
		"{unbalanced",
		`{"truncated": `,
	} {
		_, err := ExtractJSON(in)
		assert.ErrorIs(t, err, ErrNoJSON, in)
	}
}
