package concrnt

import (
	"strings"
)

func hasChar(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return true
		}
	}
	return false
}

func IsCCID(keyID string) bool {
	return len(keyID) == 42 && keyID[:3] == "con" && !hasChar(keyID, '.')
}

// ComposeTimelineID builds a semantic timeline reference such as world.concrnt.t-home@<ccid>.
func ComposeTimelineID(semanticID, owner string) string {
	return semanticID + "@" + owner
}

// SplitTimelineID is the inverse of ComposeTimelineID. Plain ids return an empty owner.
func SplitTimelineID(id string) (string, string) {
	key, owner, found := strings.Cut(id, "@")
	if !found {
		return id, ""
	}
	return key, owner
}
