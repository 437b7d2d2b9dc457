package utils

import (
	"strings"

	"github.com/google/uuid"
)

const appKeyPrefix = "dv_"

// GenerateAppKey returns a new application key of the form
// dv_<keyId>_<secret>. Only a hash of secret is ever stored; keyId locates
// the stored hash.
func GenerateAppKey() (keyID, secret, appKey string) {
	keyID = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	secret = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return keyID, secret, appKeyPrefix + keyID + "_" + secret
}

// ParseAppKey splits an application key into its key id and secret.
func ParseAppKey(appKey string) (keyID, secret string, ok bool) {
	rest, found := strings.CutPrefix(appKey, appKeyPrefix)
	if !found {
		return "", "", false
	}
	keyID, secret, found = strings.Cut(rest, "_")
	if !found || keyID == "" || secret == "" {
		return "", "", false
	}
	return keyID, secret, true
}
