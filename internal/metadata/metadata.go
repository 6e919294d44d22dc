// SPDX-License-Identifier: MIT

// Package metadata reads the tags shown next to the visualizer.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	applog "specviz/internal/log"

	"github.com/dhowden/tag"
)

// MaxLines caps the number of lines Lines returns.
const MaxLines = 50

// Metadata holds the descriptive tags of an audio file. Empty fields were
// not present in the file.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Composer string
	Year     int
	Track    int
	Format   string
}

// Read extracts tags from the file at path. The title falls back to the
// file name when the file has no usable tags, so Read never fails.
func Read(path string) Metadata {
	md := Metadata{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}

	file, err := os.Open(path)
	if err != nil {
		applog.Debugf("Metadata: Cannot open %s: %v", path, err)
		return md
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil || tags == nil {
		applog.Debugf("Metadata: No tags in %s: %v", path, err)
		return md
	}

	if title := strings.TrimSpace(tags.Title()); title != "" {
		md.Title = title
	}
	md.Artist = strings.TrimSpace(tags.Artist())
	md.Album = strings.TrimSpace(tags.Album())
	md.Genre = strings.TrimSpace(tags.Genre())
	md.Composer = strings.TrimSpace(tags.Composer())
	md.Year = tags.Year()
	md.Track, _ = tags.Track()
	if format := tags.Format(); format != tag.UnknownFormat {
		md.Format = string(format)
	}
	return md
}

// Lines returns the non-empty fields as "Key: value" display lines.
func (m Metadata) Lines() []string {
	lines := make([]string, 0, 8)
	add := func(key, value string) {
		if value != "" && len(lines) < MaxLines {
			lines = append(lines, key+": "+value)
		}
	}
	add("Title", m.Title)
	add("Artist", m.Artist)
	add("Album", m.Album)
	add("Genre", m.Genre)
	add("Composer", m.Composer)
	if m.Year > 0 {
		add("Year", fmt.Sprint(m.Year))
	}
	if m.Track > 0 {
		add("Track", fmt.Sprint(m.Track))
	}
	add("Format", m.Format)
	return lines
}
