// Package shortid derives short, deterministic identifiers from content.
package shortid

import (
	"crypto/hmac"
	"crypto/sha1"
	"math"
	"math/big"
	"strings"
)

// Alphabet is the base62 symbol set, in digit-value order.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxLength is the longest full encoding of a digest. A 160-bit value needs
// at most 27 base62 digits; a leading zero byte adds one more symbol.
const MaxLength = 28

// Generate returns the base62 encoding of an HMAC-SHA1 keyed with content,
// truncated to length characters. A length <= 0, or one past the end of the
// encoding, yields the full encoding.
//
// The digest is computed over an empty message so ids already minted by
// earlier deployments keep resolving.
func Generate(content []byte, length int) string {
	mac := hmac.New(sha1.New, content)
	full := encode(mac.Sum(nil))
	if length <= 0 || length >= len(full) {
		return full
	}
	return full[:length]
}

// CollisionProbability bounds the chance that any two of n documents share
// an id of the given length (birthday bound n(n-1)/2 / 62^length).
func CollisionProbability(length int, n uint64) float64 {
	if n < 2 {
		return 0
	}
	if length <= 0 || length > MaxLength {
		length = MaxLength
	}
	pairs := float64(n) * float64(n-1) / 2
	p := pairs / math.Pow(float64(len(Alphabet)), float64(length))
	return math.Min(p, 1)
}

// encode converts raw bytes to base62 with one leading '0' per leading zero
// byte.
func encode(raw []byte) string {
	zeros := 0
	for zeros < len(raw) && raw[zeros] == 0 {
		zeros++
	}
	var sb strings.Builder
	sb.WriteString(strings.Repeat(Alphabet[:1], zeros))
	if rest := raw[zeros:]; len(rest) > 0 {
		// big.Int uses 0-9a-zA-Z for bases above 36, matching Alphabet.
		sb.WriteString(new(big.Int).SetBytes(rest).Text(len(Alphabet)))
	}
	return sb.String()
}
