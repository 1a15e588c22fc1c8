package auth

import (
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/linkup/internal/apperror"
)

// SameUser reports whether two user identifiers name the same user.
//
// IDs are xids. Both sides are normalized (trimmed, lower-cased) and decoded,
// and the 12 raw bytes are compared, so the comparison never depends on how
// an id happened to be rendered. Values that are not xids fall back to exact
// string comparison. An empty id never matches anything, itself included.
func SameUser(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}

	idA, errA := xid.FromString(strings.ToLower(a))
	idB, errB := xid.FromString(strings.ToLower(b))
	if errA == nil && errB == nil {
		return idA == idB
	}
	return a == b
}

// CheckOwnership returns nil when subjectID owns the resource and a Forbidden
// error otherwise. Callers run it after loading the resource and before any
// mutation.
func CheckOwnership(subjectID, ownerID string) error {
	if !SameUser(subjectID, ownerID) {
		return apperror.Forbidden("you do not own this resource")
	}
	return nil
}
