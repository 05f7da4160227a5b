package errors

import "github.com/pkg/errors"

var (
	// connection errors
	ErrConnectionFailed  = errors.New("mail connection failed")
	ErrConnectionTimeout = errors.New("connection timeout")

	// message errors
	ErrMessageParse   = errors.New("message parse failed")
	ErrDuplicateEntry = errors.New("log entry already exists for message id")

	// send errors
	ErrTransportFailed    = errors.New("outbound transport failed")
	ErrMissingCredentials = errors.New("outbound credentials are missing")
	ErrArchiveFailed      = errors.New("sent folder archive failed")

	// folder errors
	ErrSentFolderNotFound = errors.New("sent folder not found")

	// auto-reply errors
	ErrCompletionFailed   = errors.New("completion request failed")
	ErrAssistantNotFound  = errors.New("assistant not found")
	ErrThreadHistoryEmpty = errors.New("thread has no history")
)
