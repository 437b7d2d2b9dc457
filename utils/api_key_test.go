package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAppKeyRoundTrip(t *testing.T) {
	keyID, secret, appKey := GenerateAppKey()
	require.True(t, strings.HasPrefix(appKey, "dv_"))

	gotID, gotSecret, ok := ParseAppKey(appKey)
	require.True(t, ok)
	assert.Equal(t, keyID, gotID)
	assert.Equal(t, secret, gotSecret)
}

func TestGenerateAppKeyIsUnique(t *testing.T) {
	_, _, a := GenerateAppKey()
	_, _, b := GenerateAppKey()
	assert.NotEqual(t, a, b)
}

func TestParseAppKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "k1", "dv_", "dv_abc", "dv__secret", "dv_abc_", "pingy_ABC"} {
		_, _, ok := ParseAppKey(key)
		assert.False(t, ok, key)
	}
}
