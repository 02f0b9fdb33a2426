package broker

import (
	"encoding/json"
	"errors"
	"fmt"

	"photobooth/internal/domain"
)

var ErrInvalidEvent = errors.New("invalid photo event")

// EncodePhotoEvent returns the message key (the photo id, so events for one
// photo stay ordered within a partition) and the JSON value.
func EncodePhotoEvent(e domain.PhotoEvent) ([]byte, []byte, error) {
	if e.PhotoID == "" || e.Type == "" {
		return nil, nil, ErrInvalidEvent
	}
	value, err := json.Marshal(e)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal photo event: %w", err)
	}
	return []byte(e.PhotoID), value, nil
}

func DecodePhotoEvent(value []byte) (domain.PhotoEvent, error) {
	var e domain.PhotoEvent
	if err := json.Unmarshal(value, &e); err != nil {
		return domain.PhotoEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	switch e.Type {
	case domain.EventPhotoUploaded, domain.EventPhotoDeleted:
	default:
		return domain.PhotoEvent{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.PhotoID == "" {
		return domain.PhotoEvent{}, fmt.Errorf("%w: missing photo id", ErrInvalidEvent)
	}
	return e, nil
}
