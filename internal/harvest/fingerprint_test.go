package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintOf(t *testing.T) {
	t.Parallel()

	a := FingerprintOf("1234567890")
	b := FingerprintOf("1234567890")
	c := FingerprintOf("1234567891")

	require.Len(t, a.String(), fingerprintLen)
	require.Equal(t, a, b, "same id must always map to the same fingerprint")
	require.NotEqual(t, a, c)
}

func TestFatalErrorMarking(t *testing.T) {
	t.Parallel()

	require.Nil(t, Fatal(nil))

	err := Fatal(ErrEndOfStream)
	require.True(t, IsFatal(err))
	require.ErrorIs(t, err, ErrEndOfStream)
	require.False(t, IsFatal(ErrEndOfStream))
}
