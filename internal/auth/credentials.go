package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Credentials is the single shared login configured for the deployment.
type Credentials struct {
	Username string
	Password string
}

// Check compares both fields in constant time. Empty configured credentials
// never match.
func (c Credentials) Check(username, password string) bool {
	if c.Username == "" || c.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare(digest(c.Username), digest(username))
	passOK := subtle.ConstantTimeCompare(digest(c.Password), digest(password))
	return userOK&passOK == 1
}

// digest equalises lengths so the comparison time does not leak them.
func digest(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}
