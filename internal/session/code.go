package session

import (
	"crypto/rand"
	"math/big"
)

// codeAlphabet drops I, O, 0 and 1 so codes survive being read off a phone
// screen across a noisy pit.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	CodeLength = 6

	// MaxCodeAttempts bounds collision retries at create time. After the last
	// draw the caller proceeds with whatever it got; a duplicate code among
	// active sessions is a tolerated small risk, not a hard failure.
	MaxCodeAttempts = 5
)

// GenerateCode draws a 6-character join code uniformly from the alphabet.
func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
