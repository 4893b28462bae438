package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist. For a
	// login attempt the HTTP layer maps this to 404 with a hint to
	// re-enter the DNI.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates a missing or mismatched password.
	// The message stays generic so the response never confirms which
	// half of the pair was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a token whose signature or claims did
	// not verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token past its expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrMalformedToken indicates a token that could not be decoded at
	// all.
	ErrMalformedToken = errors.New("malformed token")
	// ErrDuplicateDNI indicates the DNI is already registered.
	ErrDuplicateDNI = errors.New("dni already registered")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)
