package announce

import "errors"

var (
	// ErrEmptyMessage is returned when a request carries no message text.
	ErrEmptyMessage = errors.New("announce: empty message")

	// ErrUnknownArea is returned when the requested target area matches
	// no configured room.
	ErrUnknownArea = errors.New("announce: unknown target area")

	// ErrUnknownPerson is returned when a requested target person
	// matches no configured person.
	ErrUnknownPerson = errors.New("announce: unknown target person")

	// ErrNobodyHome is returned when people were targeted but none of
	// them could be reached.
	ErrNobodyHome = errors.New("announce: nobody home")

	// ErrNothingOccupied is returned when no explicit target was given
	// and no room is occupied.
	ErrNothingOccupied = errors.New("announce: no occupied rooms")

	// ErrTTSFailed is returned when the speech capability call fails
	// for a room. Other rooms are still attempted.
	ErrTTSFailed = errors.New("announce: tts delivery failed")
)
