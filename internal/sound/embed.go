// Package sound embeds the built-in party game sound definitions and the
// samples they reference.
package sound

import (
	"embed"
	"io/fs"
)

const (
	// DefinitionsDir holds the built-in YAML definitions.
	DefinitionsDir = "definitions"

	// SamplesDir holds the WAV files the definitions reference.
	SamplesDir = "sounds"
)

//go:embed definitions/*.yaml sounds/*.wav
var files embed.FS

// FS returns the embedded files. Definitions live under DefinitionsDir and
// samples under SamplesDir.
func FS() fs.FS { return files }
