package visitors

import (
	"crypto/rand"
	"fmt"
	"time"
)

const guestCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GuestCodeLength is the length of the human-enterable lookup token.
const GuestCodeLength = 8

// randomCode draws n characters uniformly from the code alphabet. Random bytes
// at or above the largest multiple of the alphabet size are rejected and
// redrawn so no character is more likely than another.
func randomCode(n int) (string, error) {
	const max = byte(256 - 256%len(guestCodeAlphabet))
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, guestCodeAlphabet[int(b)%len(guestCodeAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// NewGuestCode generates a short alphanumeric token drawn uniformly from [A-Z0-9].
// Visitors use it for self-service lookup at the kiosk.
func NewGuestCode() (string, error) {
	return randomCode(GuestCodeLength)
}

// NewVisitorCode generates a time-based visitor code, e.g. "V-20260901143022-K7Q2".
// The random suffix disambiguates visitors registered within the same second.
func NewVisitorCode(now time.Time) (string, error) {
	suffix, err := randomCode(4)
	if err != nil {
		return "", err
	}
	return "V-" + now.UTC().Format("20060102150405") + "-" + suffix, nil
}
