package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SharedOwner is the key segment for rows that carry no owner, such as
// generated seed data written with the service role.
const SharedOwner = "shared"

// OwnerKey returns a short, stable, path-safe segment for a user id. The raw
// id never appears in object keys.
func OwnerKey(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SharedOwner
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:8])
}
