package chat

import (
	"errors"

	"github.com/atotto/clipboard"
)

// SystemClipboard writes to the operating system clipboard
type SystemClipboard struct{}

// WriteAll implements Clipboard
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard not supported on this system")
	}
	return clipboard.WriteAll(text)
}

// NoClipboard rejects every write
type NoClipboard struct{}

// WriteAll implements Clipboard
func (NoClipboard) WriteAll(string) error {
	return errors.New("clipboard unavailable")
}

// AlwaysConfirm answers yes without asking
type AlwaysConfirm struct{}

// Confirm implements Confirmer
func (AlwaysConfirm) Confirm(string) (bool, error) {
	return true, nil
}
