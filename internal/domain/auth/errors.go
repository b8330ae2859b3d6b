package auth

import "errors"

// ErrEmailExists indicates a clinician account already uses the email.
var ErrEmailExists = errors.New("email already registered")
