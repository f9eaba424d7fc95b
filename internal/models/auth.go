package models

// RegisterRequest is the payload for user registration. ReferralCode is
// optional; when present the new user is attached to the code owner's
// downline during registration.
type RegisterRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferralCode string `json:"referralCode"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries a signed JWT and the authenticated user.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
