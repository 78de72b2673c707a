package util

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenID returns a fresh URL-safe token of n base62 characters. At the
// default length of 32 the space is ~190 bits, so collisions among live
// notes are negligible and ids carry no information about their contents.
func GenID(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("id length must be positive")
	}
	id := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(id) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "rand fail")
		}
		for _, b := range buf {
			// Reject bytes outside the largest multiple of 62 to keep
			// the distribution uniform.
			if b >= 248 {
				continue
			}
			id = append(id, base62Chars[int(b)%62])
			if len(id) == n {
				break
			}
		}
	}
	return string(id), nil
}
