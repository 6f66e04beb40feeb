// Normalizes Notion object ids.

package notion

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// NormalizeID returns the canonical dashed form of a Notion id.
//
// It accepts dashed or undashed ids, and notion.so URLs whose last path segment ends with the
// id, such as "https://www.notion.so/My-Page-0123456789abcdef0123456789abcdef".
func NormalizeID(id string) (string, error) {
	s := strings.TrimSpace(id)
	if u, err := uuid.Parse(s); err == nil {
		return u.String(), nil
	}
	if strings.Contains(s, "/") {
		if parsed, err := url.Parse(s); err == nil {
			s = path.Base(parsed.Path)
		}
	}
	if len(s) >= 32 {
		if u, err := uuid.Parse(s[len(s)-32:]); err == nil {
			return u.String(), nil
		}
	}
	return "", fmt.Errorf("%w: malformed id %q", ErrInvalidEndpoint, id)
}

// objectPath joins a collection, a normalized id and optional sub resources.
func objectPath(collection, id string, sub ...string) (string, error) {
	nid, err := NormalizeID(id)
	if err != nil {
		return "", err
	}
	return "/" + strings.Join(append([]string{collection, nid}, sub...), "/"), nil
}
