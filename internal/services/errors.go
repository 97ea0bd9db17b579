package services

import "errors"

var (
	// ErrEmailTaken signals that an account already exists for the email.
	ErrEmailTaken = errors.New("email is already taken")

	// ErrAlreadyInvited signals a live invitation already exists for the
	// email. Re-inviting does not rotate the previously mailed token.
	ErrAlreadyInvited = errors.New("email is already invited")

	// ErrInvalidToken signals a registration token that does not match a
	// live invitation (unknown, consumed, or wrong email).
	ErrInvalidToken = errors.New("invalid token")
)
