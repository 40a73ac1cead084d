package audit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelftest_HealthyBackend(t *testing.T) {
	report := Selftest(t.Context(), NewInMemoryStore(), nil)

	assert.Equal(t, "memory", report.Backend)
	assert.True(t, report.Writable)
	assert.True(t, report.Readable)
	assert.Empty(t, report.Error)
}

func TestSelftest_FileBackendRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "audit.log"))

	report := Selftest(t.Context(), store, nil)

	assert.True(t, report.Writable)
	assert.True(t, report.Readable)
}

func TestSelftest_BrokenBackend(t *testing.T) {
	report := Selftest(t.Context(), failingStore{}, nil)

	assert.False(t, report.Writable)
	assert.False(t, report.Readable)
	assert.NotEmpty(t, report.Error)
}

func TestSelftest_UnwritableFile(t *testing.T) {
	// A directory path cannot be opened for append.
	store := NewFileStore(t.TempDir())

	report := Selftest(t.Context(), store, nil)

	assert.False(t, report.Writable)
	assert.NotEmpty(t, report.Error)
}
