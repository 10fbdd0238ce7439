// AngelaMos | 2026
// dto.go

package auth

type LoginRequest struct {
	Email    string `json:"email"    validate:"max=255"`
	Password string `json:"password" validate:"max=128"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
