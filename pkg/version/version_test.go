package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitBinaryVersion_KeepsLinkerValues(t *testing.T) {
	// Mutates package globals, so no t.Parallel.
	oldVersion, oldCommit, oldDate := Version, Commit, Date

	defer func() { Version, Commit, Date = oldVersion, oldCommit, oldDate }()

	Version, Commit, Date = "v9.9.9", "abc1234", "2026-01-02"

	InitBinaryVersion()

	assert.Equal(t, "v9.9.9", Version)
	assert.Equal(t, "abc1234", Commit)
	assert.Equal(t, "2026-01-02", Date)
}

func TestDefaults(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, Commit)
	assert.NotEmpty(t, Date)
}
