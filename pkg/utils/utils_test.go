package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1", hash)
	assert.True(t, CheckPassword("Secret1", hash))
	assert.False(t, CheckPassword("secret1", hash))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"jazz", "rock", "blues"}, SplitCSV([]string{"jazz, rock", " ", "blues,"}))
	assert.Nil(t, SplitCSV(nil))
}

func TestParseOptionalBool(t *testing.T) {
	b, err := ParseOptionalBool("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseOptionalBool("false")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.False(t, *b)

	_, err = ParseOptionalBool("maybe")
	assert.Error(t, err)
}

func TestAtoiDefault(t *testing.T) {
	assert.Equal(t, 3, AtoiDefault("3", 1))
	assert.Equal(t, 1, AtoiDefault("x", 1))
	assert.Equal(t, 1, AtoiDefault("", 1))
}
