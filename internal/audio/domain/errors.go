package domain

import "fmt"

// EmptyDefinitionError indicates a sample was requested from a definition
// with no samples. The caller must skip playback.
type EmptyDefinitionError struct {
	SoundID SoundID
}

// Error implements the error interface.
func (e *EmptyDefinitionError) Error() string {
	return fmt.Sprintf("sound %d has no samples", e.SoundID)
}

// SampleLoadError indicates a sample file could not be loaded.
type SampleLoadError struct {
	Filename string
	Err      error
}

// Error implements the error interface.
func (e *SampleLoadError) Error() string {
	return fmt.Sprintf("can't load sample %q: %v", e.Filename, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SampleLoadError) Unwrap() error {
	return e.Err
}

// DefinitionParseError indicates a malformed serialized definition.
type DefinitionParseError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *DefinitionParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse sound definition: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse sound definition: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *DefinitionParseError) Unwrap() error {
	return e.Err
}

// UnknownSoundIDError indicates a reference to a sound that is not loaded.
// It is a programming error in the caller.
type UnknownSoundIDError struct {
	SoundID SoundID
}

// Error implements the error interface.
func (e *UnknownSoundIDError) Error() string {
	return fmt.Sprintf("unknown sound id %d", e.SoundID)
}
