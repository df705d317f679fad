// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrMissingFields is returned when a required signup field is empty.
	ErrMissingFields = errors.New("all fields are required")

	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrWeakPassword is returned when the password does not meet the minimum length.
	ErrWeakPassword = errors.New("password too short")

	// ErrInvalidRole is returned when a caller asks for a role that cannot be assigned.
	ErrInvalidRole = errors.New("invalid role")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when a unique attribute (email, username, provider id) is taken.
	ErrUserAlreadyExists = errors.New("email or username already exists")

	// ErrNoAuthPath is returned when a user has neither a password nor an external identity.
	ErrNoAuthPath = errors.New("user has no authentication path")

	// ErrInvalidCredentials is returned for any signin failure. It never reveals which factor failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAdminNotFound is returned when an admin principal does not exist or is disabled.
	ErrAdminNotFound = errors.New("admin principal not found")

	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionRevoked is returned when attempting to use a revoked session.
	ErrSessionRevoked = errors.New("session has been revoked")

	// ErrSessionExpired is returned when attempting to use an expired session.
	ErrSessionExpired = errors.New("session has expired")

	// ErrInvalidRefreshToken is returned when a refresh token is invalid or malformed.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrInvalidProfile is returned when an identity provider profile lacks an external id.
	ErrInvalidProfile = errors.New("invalid federated profile")
)
