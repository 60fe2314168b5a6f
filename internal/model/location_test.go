package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewLocation_FreshAndNonZero(t *testing.T) {
	seen := make(map[Location]struct{})
	for range 1000 {
		l := NewLocation()
		require.False(t, l.IsZero(), "zero location must never be issued")
		_, dup := seen[l]
		require.False(t, dup, "locations must be unique")
		seen[l] = struct{}{}
	}
}

func TestLocation_HexRoundTrip(t *testing.T) {
	l := NewLocation()
	s := l.String()

	assert.Len(t, s, 32)
	assert.Equal(t, strings.ToLower(s), s, "hex form is lowercase")

	parsed, err := ParseLocation(s)
	require.NoError(t, err)
	assert.Equal(t, l, parsed)
}

func TestParseLocation_Invalid(t *testing.T) {
	_, err := ParseLocation("not-hex")
	assert.Error(t, err)

	_, err = ParseLocation("abcd")
	assert.Error(t, err, "short input must be rejected")
}

func TestLocation_YAMLMapKey(t *testing.T) {
	l := NewLocation()
	in := map[Location]string{l: "somewhere"}

	out, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(out), l.String())

	var decoded map[Location]string
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, in, decoded)
}

func TestPlayerID_HexRoundTrip(t *testing.T) {
	id := NewPlayerID()
	require.False(t, id.IsZero())

	parsed, err := ParsePlayerID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}
