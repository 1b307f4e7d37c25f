package stream

import "errors"

// Errors shared by every substrate implementation. Callers match them with
// errors.Is; implementations wrap them with context.
var (
	// ErrStreamNotFound is returned when no stream has the requested name,
	// or no stream's subjects bind a published subject.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrStreamExists is returned when creating a stream whose name is
	// already taken by a different configuration.
	ErrStreamExists = errors.New("stream name already in use")

	// ErrMessageNotFound is returned by lookups that match no message.
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidSubject is returned when a subject is malformed, or when a
	// publish subject carries wildcard tokens.
	ErrInvalidSubject = errors.New("invalid subject")

	// ErrStreamFull is returned by publishes rejected under DiscardNew
	// because the stream reached its byte limit.
	ErrStreamFull = errors.New("stream maximum bytes exceeded")

	// ErrRollupNotAllowed is returned when a publish carries a rollup
	// header but the stream was not configured to allow rollups.
	ErrRollupNotAllowed = errors.New("rollup not permitted by stream")

	// ErrInvalidStreamConfig is returned when a stream configuration is
	// unusable (missing name or subjects, overlapping subjects, ...).
	ErrInvalidStreamConfig = errors.New("invalid stream configuration")

	// ErrInvalidConsumer is returned when a consumer configuration is
	// unusable, e.g. flow control without an idle heartbeat.
	ErrInvalidConsumer = errors.New("invalid consumer configuration")
)
