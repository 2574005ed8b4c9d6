package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeOffsetToken(t *testing.T) {
	token := EncodeOffsetToken(100, "4010")
	assert.NotEmpty(t, token, "Token should not be empty")

	offset, lastKey, err := DecodeOffsetToken(token)
	require.NoError(t, err)
	assert.Equal(t, 100, offset)
	assert.Equal(t, "4010", lastKey)

	// Empty last key is still a valid position
	offset, lastKey, err = DecodeOffsetToken(EncodeOffsetToken(0, ""))
	require.NoError(t, err)
	assert.Zero(t, offset)
	assert.Empty(t, lastKey)
}

func TestDecodeOffsetTokenError(t *testing.T) {
	_, _, err := DecodeOffsetToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	_, _, err = DecodeOffsetToken(EncodeMultiFieldToken("50"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	_, _, err = DecodeOffsetToken(EncodeMultiFieldToken("-5", "1010"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "offset")

	_, _, err = DecodeOffsetToken(EncodeMultiFieldToken("fifty", "1010"))
	assert.Error(t, err)
}

func TestMultiFieldToken(t *testing.T) {
	fields := []string{"2024", "03", "JE-202403-0001"}
	decoded, err := DecodeMultiFieldToken(EncodeMultiFieldToken(fields...))
	require.NoError(t, err)
	assert.Equal(t, fields, decoded)
}
