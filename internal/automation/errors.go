package automation

import "errors"

var (
	// ErrInvalidEvent is returned for events with an unknown trigger or missing ids.
	ErrInvalidEvent = errors.New("invalid automation event")
	// ErrLoadRules wraps failures to enumerate candidate rules. Nothing was executed.
	ErrLoadRules = errors.New("failed to load automation rules")
	// ErrAuditWrite wraps failures to record an automation run. Other rules still ran.
	ErrAuditWrite = errors.New("failed to record automation run")
)
