package directory

import "errors"

var (
	// ErrPersonNotFound is returned when a person ID does not exist.
	ErrPersonNotFound = errors.New("directory: person not found")

	// ErrRoomNotFound is returned when a room ID does not exist.
	ErrRoomNotFound = errors.New("directory: room not found")

	// ErrDuplicateID is returned when creating a record whose ID already exists.
	ErrDuplicateID = errors.New("directory: id already exists")

	// ErrInvalidName is returned when a name fails validation.
	ErrInvalidName = errors.New("directory: invalid name")

	// ErrInvalidEntity is returned when an entity reference fails validation.
	ErrInvalidEntity = errors.New("directory: invalid entity id")
)
