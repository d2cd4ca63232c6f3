// Package auth verifies bearer tokens and extracts the caller's role.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Roles understood by the API. Planner can solve and manage trips; admin can
// additionally manage webhook subscriptions.
const (
	RoleAdmin   = "admin"
	RolePlanner = "planner"
	RoleViewer  = "viewer"
)

// Verifier validates bearer tokens. Two modes:
//   - dev:  token is "subject:role", no signature check
//   - hmac: token is an HS256 JWT; role read from the "role" claim
type Verifier struct {
	Mode       string
	HMACSecret []byte
	RoleClaim  string
}

// Principal is the verified caller identity.
type Principal struct {
	Subject string
	Role    string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
func (p Principal) CanPlan() bool { return p.Role == RoleAdmin || p.Role == RolePlanner }

// NewVerifier builds a verifier for the given mode; empty mode means dev.
func NewVerifier(mode, hmacSecret string) *Verifier {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = "dev"
	}
	return &Verifier{Mode: mode, HMACSecret: []byte(hmacSecret), RoleClaim: "role"}
}

func (v *Verifier) Verify(token string) (Principal, error) {
	if v.Mode == "dev" {
		parts := strings.SplitN(token, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return Principal{}, errors.New("invalid dev token; expected subject:role")
		}
		return Principal{Subject: parts[0], Role: strings.ToLower(parts[1])}, nil
	}
	if v.Mode != "hmac" {
		return Principal{}, errors.New("unsupported auth mode")
	}

	segs := strings.Split(token, ".")
	if len(segs) != 3 {
		return Principal{}, errors.New("invalid JWT")
	}
	headerJSON, err := b64urlDecode(segs[0])
	if err != nil {
		return Principal{}, err
	}
	payloadJSON, err := b64urlDecode(segs[1])
	if err != nil {
		return Principal{}, err
	}
	sig, err := b64urlDecode(segs[2])
	if err != nil {
		return Principal{}, err
	}
	var hdr map[string]any
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return Principal{}, err
	}
	if alg, _ := hdr["alg"].(string); alg != "HS256" {
		return Principal{}, errors.New("unsupported alg for hmac")
	}
	mac := hmac.New(sha256.New, v.HMACSecret)
	mac.Write([]byte(segs[0] + "." + segs[1]))
	if !hmac.Equal(mac.Sum(nil), sig) {
		return Principal{}, errors.New("bad signature")
	}

	var claims map[string]any
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return Principal{}, err
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims[v.RoleClaim].(string)
	if role == "" {
		role = RoleViewer
	}
	return Principal{Subject: sub, Role: strings.ToLower(role)}, nil
}

func b64urlDecode(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }
