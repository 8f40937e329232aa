package portal

import "errors"

var (
	ErrAccessPointNotFound = errors.New("access point not found")
	ErrUserNotFound        = errors.New("portal user not found")
	ErrQuestionNotFound    = errors.New("question not found")

	// ErrDuplicateDocument is returned when enrollment reuses a document id.
	ErrDuplicateDocument = errors.New("document id already registered")

	// ErrCodeExists is returned when an access point code is already taken.
	ErrCodeExists = errors.New("access point code already exists")

	// ErrNoQuestions is returned by Random when no active question exists.
	ErrNoQuestions = errors.New("no active questions available")
)
