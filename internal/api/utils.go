package api

import (
	"crypto/rand"
	"encoding/base64"
)

// randomState returns n characters of URL-safe randomness for the OAuth
// state parameter.
func randomState(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	// base64 expands by 4/3, so n input bytes always cover n characters.
	return base64.RawURLEncoding.EncodeToString(b)[:n]
}
