package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// countryCode is prepended to every recipient number (Brazil).
const countryCode = "55"

// ErrInvalidPhone is returned for a phone number without any digits.
var ErrInvalidPhone = errors.New("invalid phone number")

// SessionClient is the WhatsApp session the gateway drives.
type SessionClient interface {
	// Initialize starts the session. Completion is reported later through
	// subscribed handlers (EventQR or EventReady), not by the return value.
	Initialize(ctx context.Context) error
	// Destroy tears the session down.
	Destroy(ctx context.Context) error
	// SendMessage sends a text message and returns its message ID.
	SendMessage(ctx context.Context, to types.JID, text string) (string, error)
	// Subscribe registers a handler for lifecycle events.
	Subscribe(handler func(SessionEvent))
}

// PhoneAddress builds the recipient JID for a raw phone number: every
// non-digit is dropped and the country code is added in front.
func PhoneAddress(phone string) (types.JID, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return types.EmptyJID, fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return types.NewJID(countryCode+digits, types.DefaultUserServer), nil
}
