package config

import "errors"

var (
	// ErrNoProfiles is returned when the profile file holds no profiles.
	ErrNoProfiles = errors.New("no profiles configured")

	// ErrProfileNotFound is returned when a named profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned when adding a profile whose name is
	// already taken.
	ErrProfileExists = errors.New("profile already exists")
)
