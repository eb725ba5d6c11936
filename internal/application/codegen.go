package application

import (
	"fmt"
	"io"
	"strings"
)

// CodeAlphabet is uppercase letters and digits without the visually
// confusable I, O, 0 and 1. Its length is 32, so every random byte maps to a
// symbol without modulo bias.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength    = 16
	codeGroupSize = 4
)

// GenerateCode draws a 16-symbol code from r and formats it as four
// hyphen-separated groups, e.g. "K7QX-9MRT-2HZP-WN4C".
func GenerateCode(r io.Reader) (string, error) {
	buf := make([]byte, codeLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	var sb strings.Builder
	sb.Grow(codeLength + codeLength/codeGroupSize - 1)
	for i, b := range buf {
		if i > 0 && i%codeGroupSize == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(CodeAlphabet[int(b)%len(CodeAlphabet)])
	}

	return sb.String(), nil
}

// IsWellFormedCode reports whether s has the shape GenerateCode produces.
func IsWellFormedCode(s string) bool {
	if len(s) != codeLength+codeLength/codeGroupSize-1 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if (i+1)%(codeGroupSize+1) == 0 {
			if s[i] != '-' {
				return false
			}
			continue
		}
		if strings.IndexByte(CodeAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
