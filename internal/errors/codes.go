// Package errors provides structured, machine-readable error codes and
// the error categories used across the mentoring engine.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Schedule errors
	CodeScheduleHoursExceeded Code = "SCHEDULE_HOURS_EXCEEDED"
	CodeScheduleEmpty         Code = "SCHEDULE_EMPTY"

	// Subject selection errors
	CodeSubjectsInsufficient Code = "SUBJECTS_INSUFFICIENT"
	CodeSubjectsTooMany      Code = "SUBJECTS_TOO_MANY"
	CodeSubjectUnknown       Code = "SUBJECT_UNKNOWN"

	// Session errors
	CodeSessionEmptyUserID Code = "SESSION_EMPTY_USER_ID"
	CodeSessionBadState    Code = "SESSION_BAD_STATE"

	// University application errors
	CodeUniversityUnknown    Code = "UNIVERSITY_UNKNOWN"
	CodeDepartmentUnknown    Code = "DEPARTMENT_UNKNOWN"
	CodeApplicationMalformed Code = "APPLICATION_MALFORMED"

	// Catalog errors
	CodeCatalogMalformed     Code = "CATALOG_MALFORMED"
	CodeStateUnknown         Code = "STATE_UNKNOWN"
	CodeTriggerUnknown       Code = "TRIGGER_UNKNOWN"
	CodeDebugCommandDisabled Code = "DEBUG_COMMAND_DISABLED"

	// External collaborator errors
	CodeDialogueUnavailable  Code = "DIALOGUE_UNAVAILABLE"
	CodeSentimentUnavailable Code = "SENTIMENT_UNAVAILABLE"
	CodeRetrievalUnavailable Code = "RETRIEVAL_UNAVAILABLE"
)
