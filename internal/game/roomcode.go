package game

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	roomCodeLength     = 5
	roomCodeMaxRetries = 10
	// Crockford base32: no I, L, O or U.
	roomCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

// CodeGenerator produces short room codes that are not currently live.
type CodeGenerator struct {
	Length     int
	MaxRetries int
	random     func([]byte) (int, error)
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{
		Length:     roomCodeLength,
		MaxRetries: roomCodeMaxRetries,
		random:     rand.Read,
	}
}

// Generate draws codes until inUse reports a free one. It gives up after
// MaxRetries draws with ErrResourceExhausted.
func (g *CodeGenerator) Generate(inUse func(code string) bool) (string, error) {
	for attempt := 0; attempt < g.MaxRetries; attempt++ {
		code, err := g.draw()
		if err != nil {
			return "", err
		}
		if !inUse(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: no free room code after %d attempts", ErrResourceExhausted, g.MaxRetries)
}

func (g *CodeGenerator) draw() (string, error) {
	buf := make([]byte, g.Length)
	if _, err := g.random(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode folds user input onto the generator alphabet so that
// visually confusable characters resolve to the same room.
func NormalizeCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return strings.Map(func(r rune) rune {
		switch r {
		case 'I', 'L':
			return '1'
		case 'O':
			return '0'
		}
		return r
	}, code)
}
