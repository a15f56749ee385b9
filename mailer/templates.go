package mailer

import (
	"fmt"
	"strings"
	"time"
)

func VerificationEmail(to, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Verify Your Email Address",
		Text: "Hello,\n\n" +
			"Thank you for registering with Quiz AI.\n\n" +
			"To complete your registration, please verify your email address using the verification code below:\n\n" +
			fmt.Sprintf("Verification Code: %s\n\n", code) +
			fmt.Sprintf("The code expires in %s.\n\n", humanDuration(ttl)) +
			"If you did not create an account with us, please ignore this email. No further action is required.\n\n" +
			"Best regards,\nQuiz AI Team",
	}
}

// ResetLink is the frontend page that accepts a reset code.
func ResetLink(frontendURL, code string) string {
	return strings.TrimRight(frontendURL, "/") + "/change-password/" + code
}

func PasswordResetEmail(to, frontendURL, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Reset Your Password",
		Text: "Hello,\n\n" +
			"We received a request to reset the password for your Quiz AI account.\n\n" +
			"To reset your password, please click the link below:\n\n" +
			ResetLink(frontendURL, code) + "\n\n" +
			fmt.Sprintf("This link is valid for %s and can only be used once.\n\n", humanDuration(ttl)) +
			"If you did not request this, please ignore this email and no changes will be made.\n\n" +
			"Best regards,\nQuiz AI Team",
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
