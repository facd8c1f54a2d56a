package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString_FullDocument(t *testing.T) {
	l, err := ParseString(`
		store: {
			parallelism:   8
			debug:         true
			fastTrack:     true
			shardsPerKind: 16
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, 8, l.Parallelism)
	assert.True(t, l.Debug)
	assert.True(t, l.FastTrack)
	assert.Equal(t, 16, l.ShardsPerKind)
}

func TestParseString_MissingFieldsKeepZeroValue(t *testing.T) {
	l, err := ParseString(`store: {}`)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Parallelism)
	assert.False(t, l.Debug)
}

func TestParseString_MissingStoreField(t *testing.T) {
	_, err := ParseString(`other: {}`)
	require.Error(t, err)
}

func TestParseString_WrongFieldType(t *testing.T) {
	_, err := ParseString(`store: { parallelism: "eight" }`)
	require.Error(t, err)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, "parallelism", pe.Field)
}

func TestLoaded_OptionsProducesFourOptions(t *testing.T) {
	l := Loaded{Parallelism: 4, Debug: true, FastTrack: false, ShardsPerKind: 8}
	assert.Len(t, l.Options(), 4)
}
