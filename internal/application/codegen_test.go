package application

import (
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_Shape(t *testing.T) {
	for range 200 {
		code, err := GenerateCode(rand.Reader)
		require.NoError(t, err)

		require.Len(t, code, 19)
		groups := strings.Split(code, "-")
		require.Len(t, groups, 4)
		for _, g := range groups {
			assert.Len(t, g, 4)
			for _, ch := range g {
				assert.Contains(t, CodeAlphabet, string(ch))
			}
		}
		assert.True(t, IsWellFormedCode(code), code)
	}
}

func TestGenerateCode_Deterministic(t *testing.T) {
	code, err := GenerateCode(sequenceReader(seqBytes(0)))
	require.NoError(t, err)
	assert.Equal(t, "ABCD-EFGH-JKLM-NPQR", code)

	// Bytes wrap around the 32-symbol alphabet.
	code, err = GenerateCode(repeatReader(31, 32, 255))
	require.NoError(t, err)
	assert.Equal(t, "9A99-A99A-99A9-9A99", code)
}

func TestGenerateCode_AlphabetExcludesConfusables(t *testing.T) {
	assert.Len(t, CodeAlphabet, 32)
	for _, ch := range "IO01" {
		assert.NotContains(t, CodeAlphabet, string(ch))
	}
}

func TestGenerateCode_ReaderError(t *testing.T) {
	_, err := GenerateCode(errReader{})
	assert.Error(t, err)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestIsWellFormedCode(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"ABCD-EFGH-JKLM-NPQR", true},
		{"2345-6789-ZZZZ-AAAA", true},
		{"abcd-efgh-jklm-npqr", false},
		{"ABCDEFGHJKLMNPQR", false},
		{"ABCD-EFGH-JKLM-NPQ", false},
		{" ABCD-EFGH-JKLM-NPQR", false},
		{"ABCD-EFGH-JKLM-NPQ0", false},
		{"ABCD_EFGH_JKLM_NPQR", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWellFormedCode(tt.input))
		})
	}
}
