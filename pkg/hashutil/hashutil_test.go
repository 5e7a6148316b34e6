package hashutil_test

import (
	"encoding/hex"
	"testing"

	"github.com/rohmanhakim/clipmd/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestHashBytes_SHA256(t *testing.T) {
	got, err := hashutil.HashBytes([]byte("hello world"), hashutil.HashAlgoSHA256)
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", got)
}

func TestHashBytes_BLAKE3(t *testing.T) {
	data := []byte("clipboard image bytes")
	expected := blake3.Sum256(data)

	got, err := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(expected[:]), got)
}

func TestHashBytes_UnsupportedAlgo(t *testing.T) {
	_, err := hashutil.HashBytes([]byte("x"), hashutil.HashAlgo("md5"))
	assert.Error(t, err)
}

func TestResourceID(t *testing.T) {
	a := hashutil.ResourceID([]byte("same"))
	b := hashutil.ResourceID([]byte("same"))
	c := hashutil.ResourceID([]byte("different"))

	assert.Len(t, a, hashutil.ResourceIDLength)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	full, err := hashutil.HashBytes([]byte("same"), hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)
	assert.Equal(t, full[:hashutil.ResourceIDLength], a)
}
