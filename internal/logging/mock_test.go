package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_SharesEntriesWithDerivedLoggers(t *testing.T) {
	mock := NewMockLogger()

	mock.Info("top")
	mock.WithField(FieldSource, "a.pdf").Debug("derived")
	mock.WithError(errors.New("x")).Error("failed")

	entries := mock.GetEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, []Field{{Key: FieldSource, Value: "a.pdf"}}, entries[1].Fields)
	assert.EqualError(t, entries[2].Error, "x")
	assert.True(t, mock.HasEntry("DEBUG", "derived"))
	assert.Len(t, mock.GetEntriesByLevel("ERROR"), 1)
}

func TestMockLogger_ZeroValueUsable(t *testing.T) {
	var mock MockLogger
	mock.Info("n=3")
	assert.True(t, mock.HasEntry("INFO", "n=3"))
}
