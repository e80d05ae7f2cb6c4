package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := Hash("changeme12345")
	require.NoError(t, err)
	assert.NotEqual(t, "changeme12345", hash)

	assert.True(t, Verify("changeme12345", hash))
	assert.False(t, Verify("wrong-password", hash))
}

func TestHashTokenIsDeterministic(t *testing.T) {
	t.Parallel()

	a := HashToken("some-refresh-token")
	b := HashToken("some-refresh-token")
	c := HashToken("another-token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
