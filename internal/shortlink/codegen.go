package shortlink

import (
	"crypto/rand"
)

const codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CryptoCodeGenerator draws alphanumeric codes from crypto/rand. It makes no
// uniqueness guarantee; collision handling belongs to the service.
type CryptoCodeGenerator struct{}

func NewCryptoCodeGenerator() *CryptoCodeGenerator { return &CryptoCodeGenerator{} }

func (g *CryptoCodeGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	out := make([]byte, length)
	for i := range buf {
		out[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}

	return string(out), nil
}
