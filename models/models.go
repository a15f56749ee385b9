package models

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&EmailVerificationToken{},
		&PasswordResetToken{},
		&Quiz{},
		&Question{},
		&Choice{},
		&ShareToken{},
		&ShareRedemption{},
		&Submission{},
		&SubmissionAnswer{},
	}
}
