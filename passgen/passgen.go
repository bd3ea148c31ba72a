// Package passgen generates random passwords and diceware passphrases
// for vault items. All randomness comes from crypto/rand.
package passgen

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/sethvargo/go-diceware/diceware"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = "!@#$%^&*()-_=+[]{}:,.?"
)

// Defaults for Password when the zero-value config is used.
const (
	DefaultLength = 20
	MinLength     = 8
	MaxLength     = 128
)

var (
	// ErrBadLength is returned for a length outside [MinLength, MaxLength].
	ErrBadLength = errors.New("password length out of range")
	// ErrNoCharsets is returned when every character class is disabled.
	ErrNoCharsets = errors.New("no character classes enabled")
)

// Config selects the character classes for Password. The zero value
// disables nothing: a zero Length means DefaultLength and the No* flags
// are opt-out, so Config{} yields a full-alphabet password.
type Config struct {
	Length    int
	NoUpper   bool
	NoDigits  bool
	NoSymbols bool
}

// Password generates a random password. Each enabled character class is
// guaranteed at least one occurrence so generated passwords survive
// common complexity filters.
func Password(cfg Config) (string, error) {
	length := cfg.Length
	if length == 0 {
		length = DefaultLength
	}
	if length < MinLength || length > MaxLength {
		return "", ErrBadLength
	}

	classes := []string{lowercase}
	if !cfg.NoUpper {
		classes = append(classes, uppercase)
	}
	if !cfg.NoDigits {
		classes = append(classes, digits)
	}
	if !cfg.NoSymbols {
		classes = append(classes, symbols)
	}
	if length < len(classes) {
		return "", ErrBadLength
	}

	alphabet := strings.Join(classes, "")

	// One character from each class first, the rest from the full
	// alphabet, then an unbiased shuffle.
	out := make([]byte, 0, length)
	for _, class := range classes {
		ch, err := randomChar(class)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}
	for len(out) < length {
		ch, err := randomChar(alphabet)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}
	if err := shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

// Passphrase generates a diceware passphrase of the given word count,
// joined by separator. Word counts below 4 are rejected; short
// passphrases defeat the point of using one.
func Passphrase(words int, separator string) (string, error) {
	if words < 4 {
		return "", errors.New("passphrase needs at least 4 words")
	}
	list, err := diceware.Generate(words)
	if err != nil {
		return "", err
	}
	return strings.Join(list, separator), nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}

// shuffle performs a Fisher-Yates shuffle driven by crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
