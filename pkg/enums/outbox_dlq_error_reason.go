package enums

import "fmt"

// OutboxDLQErrorReason maps to the error_reason check on outbox_dlq.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonUndecodable marks rows the registry could not resolve.
	OutboxDLQReasonUndecodable OutboxDLQErrorReason = "undecodable"
	// OutboxDLQReasonNonRetryable marks publish failures the broker will never accept.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonUndecodable,
	OutboxDLQReasonNonRetryable,
	OutboxDLQReasonMaxAttempts,
}

func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOutboxDLQErrorReason converts a stored error_reason back into the enum.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	reason := OutboxDLQErrorReason(value)
	if !reason.IsValid() {
		return "", fmt.Errorf("invalid dlq error reason %q", value)
	}
	return reason, nil
}
