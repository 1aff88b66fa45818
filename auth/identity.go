package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the coarse authorization level carried in the id token.
type Role string

const (
	RoleAdmin      Role = "admin"
	RolePrivileged Role = "privileged"
	RoleUser       Role = "user"
)

// Identity is the decoded set of id-token claims the console reads. The
// token is issued by the auth service and validated there; the client only
// decodes it.
type Identity struct {
	Subject    string
	Nickname   string
	Email      string
	GivenName  string
	FamilyName string
	Role       Role
	Groups     []string
	ExpiresAt  time.Time
}

// Expired reports whether the identity's token has passed its expiry.
func (id *Identity) Expired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}

// InGroup reports membership in a named group.
func (id *Identity) InGroup(group string) bool {
	for _, g := range id.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// ParseIdentity decodes an id token's claims without verifying its
// signature. Verification is the auth service's job; the client trusts the
// token it was handed at exchange time.
func ParseIdentity(idToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("decode id token: %w", err)
	}

	id := &Identity{
		Subject:    claimString(claims, "sub"),
		Nickname:   claimString(claims, "nickname"),
		Email:      claimString(claims, "email"),
		GivenName:  claimString(claims, "given_name"),
		FamilyName: claimString(claims, "family_name"),
		Role:       Role(claimString(claims, "role")),
	}
	if id.Role == "" {
		id.Role = RoleUser
	}

	// Group membership is a single comma-separated claim.
	if groups := claimString(claims, "groups"); groups != "" {
		for _, g := range strings.Split(groups, ",") {
			if g = strings.TrimSpace(g); g != "" {
				id.Groups = append(id.Groups, g)
			}
		}
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}

	return id, nil
}

func claimString(claims jwt.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
