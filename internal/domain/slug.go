package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const slugSuffixLength = 6

var slugAlphabet = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

// Slugify lowercases the title and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// DeriveSlug returns a URL-safe slug for the title with a random
// disambiguating suffix. Uniqueness is ultimately enforced by the store's
// unique index on slug.
func DeriveSlug(title string) (string, error) {
	suffix := make([]rune, slugSuffixLength)
	max := big.NewInt(int64(len(slugAlphabet)))
	for i := 0; i < slugSuffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = slugAlphabet[n.Int64()]
	}
	base := Slugify(title)
	if base == "" {
		return string(suffix), nil
	}
	return base + "-" + string(suffix), nil
}
