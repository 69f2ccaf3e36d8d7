package project

import "errors"

var (
	// ErrInvalidProject is returned when imported data is not a project document.
	ErrInvalidProject = errors.New("invalid project format")

	// ErrNotFound is returned when no project carries the requested id.
	ErrNotFound = errors.New("project not found")
)
