package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for access tokens issued by the portal's identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	// Umbrellas scopes a POC to the disciplines they review. A POC without any reviews nothing.
	Umbrellas []string `json:"umbrellas,omitempty"`
	jwt.RegisteredClaims
}

// Reviewer is the acting party of an approval decision.
type Reviewer struct {
	UserID    string
	Role      ReviewerRole
	Umbrellas []string
}

// CanReview reports whether the reviewer is scoped to the umbrella. Admins see every umbrella.
func (r Reviewer) CanReview(umbrellaKey string) bool {
	if r.Role == ReviewerAdmin {
		return true
	}
	for _, u := range r.Umbrellas {
		if u == umbrellaKey {
			return true
		}
	}
	return false
}

// ReviewerFromClaims maps an authenticated user onto a reviewer role.
func ReviewerFromClaims(claims *JWTClaims) (Reviewer, bool) {
	if claims == nil {
		return Reviewer{}, false
	}
	switch claims.Role {
	case RolePOC:
		return Reviewer{UserID: claims.UserID, Role: ReviewerPOC, Umbrellas: claims.Umbrellas}, true
	case RoleAdmin, RoleSuperAdmin:
		return Reviewer{UserID: claims.UserID, Role: ReviewerAdmin}, true
	}
	return Reviewer{}, false
}
