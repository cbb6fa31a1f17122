package ulid

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithPrefix(t *testing.T) {
	id := GenerateWithPrefix(PrefixChunk)

	assert.Equal(t, PrefixChunk, id.Prefix())
	assert.True(t, strings.HasPrefix(id.String(), "chunk-"))
	assert.False(t, id.IsZero())
	assert.NotContains(t, id.RawString(), PrefixSeparator)
}

func TestParse_RoundTrip(t *testing.T) {
	original := GenerateWithPrefix(PrefixDocument)

	parsed, err := Parse(original.String())
	require.NoError(t, err)
	assert.Equal(t, original.String(), parsed.String())
	assert.Equal(t, PrefixDocument, parsed.Prefix())

	plain, err := Parse(original.RawString())
	require.NoError(t, err)
	assert.Empty(t, plain.Prefix())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("not-a-ulid")
	assert.Error(t, err)

	assert.False(t, Validate("chunk-xyz"))
	assert.True(t, Validate(ChunkID()))
}

func TestULID_SortsByTime(t *testing.T) {
	earlier := NewWithTime(time.Now().Add(-time.Hour))
	later := NewWithTime(time.Now())

	assert.Less(t, earlier.RawString(), later.RawString())
}

func TestULID_JSON(t *testing.T) {
	id := GenerateWithPrefix(PrefixRun)

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var back ULID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id.String(), back.String())
}
