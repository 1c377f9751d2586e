// Package token implements the member session token codec.
//
// A token is the base64url (unpadded) JSON payload {"member_id": "..."},
// joined by a period to the hex HMAC-SHA256 of that payload segment. Tokens
// carry no expiry; session lifetime is bounded by the secret and by the
// member's active flag checked on every request.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
)

type payload struct {
	MemberID string `json:"member_id"`
}

// Issue signs a session token for the given member id.
func Issue(memberID, secret string) string {
	raw, _ := json.Marshal(payload{MemberID: memberID})
	seg := base64.RawURLEncoding.EncodeToString(raw)
	return seg + "." + sign(seg, secret)
}

// Verify checks the token signature and extracts the member id.
// Any malformed structure, signature mismatch, decode failure or missing
// member id yields ("", false); there is no error to propagate.
func Verify(token, secret string) (string, bool) {
	seg, sig, found := strings.Cut(token, ".")
	if !found {
		return "", false
	}

	expected := sign(seg, secret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}

	raw, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return "", false
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.MemberID == "" {
		return "", false
	}
	return p.MemberID, true
}

func sign(seg, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(seg))
	return hex.EncodeToString(mac.Sum(nil))
}
