package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrState           = errors.New("invalid state")
	ErrChannelDelivery = errors.New("channel delivery failed")
	ErrStore           = errors.New("store error")
	ErrUpstream        = errors.New("upstream call failed")
)

// New returns a sentinel error of the given kind.
func New(kind error, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}

// Store wraps a persistence error with ErrStore.
// Errors that already carry a kind are returned unchanged.
func Store(err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return err
	}
	return errors.Join(ErrStore, err)
}

// Kind returns the kind sentinel carried by err, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrState, ErrChannelDelivery, ErrStore, ErrUpstream} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsState(err error) bool { return errors.Is(err, ErrState) }

func IsChannelDelivery(err error) bool { return errors.Is(err, ErrChannelDelivery) }

func IsStore(err error) bool { return errors.Is(err, ErrStore) }

func IsUpstream(err error) bool { return errors.Is(err, ErrUpstream) }
