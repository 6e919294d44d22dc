// SPDX-License-Identifier: MIT
package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFallsBackToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Night Drive.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not really an mp3"), 0644))

	md := Read(path)
	assert.Equal(t, "Night Drive", md.Title)
	assert.Empty(t, md.Artist)
	assert.Equal(t, []string{"Title: Night Drive"}, md.Lines())
}

func TestReadMissingFile(t *testing.T) {
	md := Read(filepath.Join(t.TempDir(), "gone.flac"))
	assert.Equal(t, "gone", md.Title)
}

func TestLines(t *testing.T) {
	md := Metadata{
		Title:  "Song",
		Artist: "Band",
		Year:   1999,
		Track:  3,
		Format: "ID3v2.4",
	}
	assert.Equal(t, []string{
		"Title: Song",
		"Artist: Band",
		"Year: 1999",
		"Track: 3",
		"Format: ID3v2.4",
	}, md.Lines())
}
