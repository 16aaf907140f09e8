package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifequest/apperrors"
)

func TestHashAndCheck(t *testing.T) {
	t.Parallel()

	password := "supersecret"
	hashed, err := HashPassword(password)
	require.NoError(t, err)

	assert.NotEqual(t, password, hashed)
	assert.True(t, CheckPassword(password, hashed))
	assert.False(t, CheckPassword("wrongpass", hashed))
}

func TestHash_Salted(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("same password", first))
	assert.True(t, CheckPassword("same password", second))
}

func TestHash_AtByteLimit(t *testing.T) {
	t.Parallel()

	password := strings.Repeat("a", 72)
	hashed, err := HashPassword(password)
	require.NoError(t, err)
	assert.True(t, CheckPassword(password, hashed))
}

func TestHash_OversizedPassword(t *testing.T) {
	t.Parallel()

	_, err := HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCheck_MalformedHash(t *testing.T) {
	t.Parallel()

	assert.False(t, CheckPassword("anything", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("anything", ""))
}
