package directory

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation limits matching the conventions used across the codebase.
const (
	maxNameLength   = 100
	maxEntityLength = 255
	maxSensors      = 20
	entityPattern   = `^[a-z0-9_]+\.[a-z0-9_]+$`
)

var entityRegex = regexp.MustCompile(entityPattern)

// ValidateName checks if a display name is valid.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateEntity checks if a host entity reference is valid.
// Entity ids follow the "domain.object_id" convention.
func ValidateEntity(entity string) error {
	if entity == "" {
		return fmt.Errorf("%w: entity cannot be empty", ErrInvalidEntity)
	}
	if len(entity) > maxEntityLength {
		return fmt.Errorf("%w: entity exceeds %d characters", ErrInvalidEntity, maxEntityLength)
	}
	if !entityRegex.MatchString(entity) {
		return fmt.Errorf("%w: %q must match domain.object_id", ErrInvalidEntity, entity)
	}
	return nil
}

// ValidatePerson validates a Person before persistence.
func ValidatePerson(p *Person) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if err := ValidateEntity(p.PresenceEntity); err != nil {
		return fmt.Errorf("presence entity: %w", err)
	}
	if p.TrackerEntity != "" {
		if err := ValidateEntity(p.TrackerEntity); err != nil {
			return fmt.Errorf("tracker entity: %w", err)
		}
	}
	return nil
}

// ValidateRoom validates a Room before persistence.
func ValidateRoom(r *Room) error {
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if r.MediaPlayer != "" {
		if err := ValidateEntity(r.MediaPlayer); err != nil {
			return fmt.Errorf("media player: %w", err)
		}
	}
	if len(r.OccupancySensors) > maxSensors {
		return fmt.Errorf("%w: more than %d occupancy sensors", ErrInvalidEntity, maxSensors)
	}
	for _, sensor := range r.OccupancySensors {
		if err := ValidateEntity(sensor); err != nil {
			return fmt.Errorf("occupancy sensor: %w", err)
		}
	}
	return nil
}
