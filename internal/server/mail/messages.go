package mail

import (
	"fmt"
	"strings"
)

const (
	SubjectVerification = "Notes App email verification"
	SubjectReset        = "Notes App password reset"
)

func link(baseURL, path, token string) string {
	return strings.TrimRight(baseURL, "/") + "/" + path + "/" + token
}

// SignupMessage confirms a new account and offers to undo the signup.
func SignupMessage(baseURL, to, verifyToken, undoToken string) Message {
	verify := link(baseURL, "verify", verifyToken)
	undo := link(baseURL, "undo-signup", undoToken)
	return Message{
		To:      to,
		Subject: SubjectVerification,
		Text: fmt.Sprintf("You just signed up for the Notes App. To confirm your signup, click here: %s. "+
			"To undo your signup, click here: %s.", verify, undo),
		HTML: fmt.Sprintf("You just signed up for the Notes App. To confirm your signup, <a href='%s'>click here</a>. "+
			"To undo your signup, <a href='%s'>click here</a>.", verify, undo),
	}
}

func VerificationMessage(baseURL, to, token string) Message {
	verify := link(baseURL, "verify", token)
	return Message{
		To:      to,
		Subject: SubjectVerification,
		Text:    fmt.Sprintf("You just requested a new verification link. Click here to verify: %s.", verify),
		HTML:    fmt.Sprintf("You just requested a new verification link. <a href='%s'>Click here</a> to verify.", verify),
	}
}

func ResetMessage(baseURL, to, token string) Message {
	reset := link(baseURL, "reset", token)
	return Message{
		To:      to,
		Subject: SubjectReset,
		Text:    fmt.Sprintf("Here is your password reset link: %s. If you did not do this, please ignore this email.", reset),
		HTML:    fmt.Sprintf("Here is your <a href='%s'>password reset link</a>. If you did not do this, please ignore this email.", reset),
	}
}
