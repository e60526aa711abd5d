package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "__session"

// MinPasswordLength is the shortest password accepted on signup and reset.
const MinPasswordLength = 8

// Confirmation phrases for the self-serve deletion flows.
const (
	PhraseDeleteMost = "delete most of my data"
	PhraseDeleteAll  = "delete all of my data"
)
