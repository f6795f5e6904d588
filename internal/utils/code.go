package utils

import "crypto/rand"

// codeAlphabet lists the characters ticket codes are drawn from.  Only
// uppercase letters and digits are used so codes survive being read
// aloud at the door or typed from a printed badge.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateTicketCode returns a cryptographically random code of n
// characters over the code alphabet.  Each character is drawn with
// rejection sampling so the distribution stays uniform despite the
// alphabet length not dividing 256.
func GenerateTicketCode(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	// Largest multiple of len(codeAlphabet) below 256; bytes at or above
	// it are rejected to avoid modulo bias.
	max := byte(256 - 256%len(codeAlphabet))
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
