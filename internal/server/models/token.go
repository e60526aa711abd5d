package models

// TokenPurpose scopes a one-time token to a single flow. Tokens of different
// purposes never invalidate each other.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify_email"
	PurposeResetPassword TokenPurpose = "reset_password"
	PurposeUndoSignup    TokenPurpose = "undo_signup"
)
