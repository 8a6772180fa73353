// Package packs manages Telegram sticker packs: creating a pack, adding
// stickers to it, and probing for existence. It talks to the Bot API
// directly because the bot framework does not cover the sticker-set
// endpoints.
package packs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPackNotFound reports an operation against a sticker set the platform
// does not know. Callers may create the pack and retry once; never more.
var ErrPackNotFound = errors.New("packs: sticker set not found")

// APIError is a Bot API rejection.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("packs: telegram api: %d %s", e.Code, e.Description)
}

// classify maps a Bot API rejection to a typed error. STICKERSET_INVALID is
// how the platform spells "no such pack".
func classify(code int, description string) error {
	if strings.Contains(strings.ToUpper(description), "STICKERSET_INVALID") {
		return fmt.Errorf("%w: %s", ErrPackNotFound, description)
	}
	return &APIError{Code: code, Description: description}
}
