// Package identifier generates the URL identifiers used across the site:
// slugs for categories, employers and jobs, and short uids for accounts.
package identifier

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/segmentio/ksuid"
)

const (
	UIDLength   = 12
	maxAttempts = 20
)

// ExistsFunc reports whether a candidate identifier is already taken.
type ExistsFunc func(candidate string) (bool, error)

// Slug derives a slug from text and appends -2, -3, ... until exists reports
// the candidate as free. After maxAttempts a random suffix is used instead.
func Slug(text string, exists ExistsFunc) (string, error) {
	base := slug.Make(text)
	if base == "" {
		base = randomToken(8)
	}
	candidate := base
	for i := 2; i <= maxAttempts+1; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	for {
		candidate = base + "-" + randomToken(8)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

// UID returns a 12 character lower case hex identifier not yet taken.
func UID(exists ExistsFunc) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := randomToken(UIDLength)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unable to generate a free uid after %d attempts", maxAttempts)
}

func randomToken(n int) string {
	k := ksuid.New()
	payload := k.Payload()
	return strings.ToLower(hex.EncodeToString(payload))[:n]
}
