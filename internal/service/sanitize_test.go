package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeContent(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "script block removed",
			input: "<script>alert(1)</script>Hello",
			want:  "Hello",
		},
		{
			name:  "script block with attributes removed",
			input: `<script type="text/javascript">steal()</script>ok`,
			want:  "ok",
		},
		{
			name:  "multiline script removed",
			input: "a<script>\nvar x = 1;\n</script>b",
			want:  "ab",
		},
		{
			name:  "iframe removed",
			input: `<iframe src="http://evil"></iframe>text`,
			want:  "text",
		},
		{
			name:  "javascript uri stripped",
			input: `<a href="javascript:alert(1)">link</a>`,
			want:  `<a href="alert(1)">link</a>`,
		},
		{
			name:  "inline event handler stripped",
			input: `<img src=x onerror="alert(1)">`,
			want:  `<img src=x "alert(1)">`,
		},
		{
			name:  "event handler with spaces stripped",
			input: `<div onclick = "go()">x</div>`,
			want:  `<div  "go()">x</div>`,
		},
		{
			name:  "case insensitive",
			input: "<SCRIPT>x</SCRIPT>JAVASCRIPT:y",
			want:  "y",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  spaced out  ",
			want:  "spaced out",
		},
		{
			name:  "script-only content becomes empty",
			input: "<script>alert(1)</script>",
			want:  "",
		},
		{
			name:  "harmless markup preserved",
			input: "<b>bold</b> and <i>italic</i>",
			want:  "<b>bold</b> and <i>italic</i>",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, sanitizeContent(tc.input))
		})
	}
}
