package domain

import "errors"

// Error text doubles as the message shown to the offending client, so it is
// phrased for humans rather than for logs.
var (
	// ErrNameRequired is returned when a student joins with a blank name.
	ErrNameRequired = errors.New("Name is required.")
	// ErrNotJoined is returned when a connection answers before joining.
	ErrNotJoined = errors.New("You must enter your name first.")
	// ErrNoActiveQuestion is returned when an answer arrives between rounds.
	ErrNoActiveQuestion = errors.New("No active question.")
	// ErrAlreadyAnswered is returned on a second answer for the same round.
	ErrAlreadyAnswered = errors.New("You already answered this question.")
	// ErrInvalidOption is returned when the option id matches no option.
	ErrInvalidOption = errors.New("Invalid option.")
	// ErrEmptyQuestion is returned when the question text is blank.
	ErrEmptyQuestion = errors.New("Question cannot be empty.")
	// ErrTooFewOptions is returned when fewer than 2 options have text.
	ErrTooFewOptions = errors.New("At least 2 options are required.")
	// ErrQuestionActive is returned when starting over a running round.
	ErrQuestionActive = errors.New("Finish the current question first.")
	// ErrBankUnavailable indicates no question bank is configured.
	ErrBankUnavailable = errors.New("Question bank is not available.")
	// ErrSetNotFound indicates the question bank has no such set.
	ErrSetNotFound = errors.New("Question set not found.")
	// ErrNoSuchBankQuestion indicates an out-of-range index into a set.
	ErrNoSuchBankQuestion = errors.New("No such question in set.")
)
