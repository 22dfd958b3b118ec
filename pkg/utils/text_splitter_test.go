package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{"short", "abc", 10, 2, []string{"abc"}},
		{"exact windows", "abcdefgh", 4, 0, []string{"abcd", "efgh"}},
		{"overlap", "abcdefgh", 4, 2, []string{"abcd", "cdef", "efgh"}},
		{"overlap too large", "abcdef", 3, 5, []string{"abc", "def"}},
		{"multibyte", "가나다라마", 2, 0, []string{"가나", "다라", "마"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitText(tt.text, tt.size, tt.overlap))
		})
	}
}

func TestSplitTextCoversInput(t *testing.T) {
	text := strings.Repeat("0123456789", 50)
	chunks := SplitText(text, 120, 20)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 120)
	}
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}
