package common

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 10))
	assert.Equal(t, "abc", TruncateString("abcdef", 3))
	assert.Equal(t, "", TruncateString("abc", 0))
	assert.Equal(t, "", TruncateString("abc", -1))
}

func TestTruncateStringKeepsRuneBoundary(t *testing.T) {
	// é为两字节，上限落在续字节上时整个rune被丢弃
	assert.Equal(t, "Jos", TruncateString("José", 4))
	assert.Equal(t, "José", TruncateString("José", 5))

	s := "análisis de crédito"
	for maxLen := 0; maxLen <= len(s); maxLen++ {
		out := TruncateString(s, maxLen)
		assert.True(t, utf8.ValidString(out), "maxLen=%d produced invalid UTF-8", maxLen)
		assert.LessOrEqual(t, len(out), maxLen)
	}
}
