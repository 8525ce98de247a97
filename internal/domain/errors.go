package domain

import "errors"

var (
	// ErrInvalidQuestion is returned when a question breaks its invariants.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrQuestionStoreReadOnly is returned when no writable question store is configured.
	ErrQuestionStoreReadOnly = errors.New("question store is read-only")
	// ErrEvaluationNotFound indicates no stored evaluation matched the lookup.
	ErrEvaluationNotFound = errors.New("evaluation not found")
	// ErrRecordOwnership is returned when a record id belongs to another player.
	ErrRecordOwnership = errors.New("evaluation record belongs to another player")
	// ErrPersistence wraps store write failures; the computed evaluation is still returned.
	ErrPersistence = errors.New("failed to persist evaluation")
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering an email twice.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUser is returned when an account is missing required fields.
	ErrInvalidUser = errors.New("invalid user")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned for malformed or expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden is returned when the caller's role may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownActivity indicates a daily plan item id that is not in the plan.
	ErrUnknownActivity = errors.New("unknown activity")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")
)
