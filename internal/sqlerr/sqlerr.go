// Package sqlerr translates PostgreSQL driver errors into API errors.
//
// SQLSTATE codes and severities are mapped onto small enums so callers can
// switch on the kind of violation without knowing PostgreSQL internals.
package sqlerr

import (
	"fmt"
	"strings"
)

// Code classifies a database error.
type Code string

const (
	Other               Code = "other"
	NotNullViolation    Code = "not_null_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	UniqueViolation     Code = "unique_violation"
	CheckViolation      Code = "check_violation"
	InvalidTextRep      Code = "invalid_text_representation"
	StringTooLong       Code = "string_data_right_truncation"
	InvalidDatetime     Code = "invalid_datetime_format"
	Unavailable         Code = "unavailable"
)

// Severity mirrors the PostgreSQL message severity.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// Error is a normalized PostgreSQL error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a SQLSTATE onto a Code.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23502":
		return NotNullViolation
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23514":
		return CheckViolation
	// invalid_text_representation, untranslatable_character, character_not_in_repertoire
	case "22P02", "22P05", "22021":
		return InvalidTextRep
	case "22001":
		return StringTooLong
	case "22007", "22008":
		return InvalidDatetime
	// too_many_connections, admin_shutdown, crash_shutdown, cannot_connect_now
	case "53300", "57P01", "57P02", "57P03":
		return Unavailable
	}
	if strings.HasPrefix(sqlState, "08") {
		return Unavailable
	}
	return Other
}

func MapSeverity(severity string) Severity {
	switch severity {
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	case "WARNING":
		return SeverityWarning
	case "NOTICE":
		return SeverityNotice
	case "DEBUG":
		return SeverityDebug
	case "INFO":
		return SeverityInfo
	case "LOG":
		return SeverityLog
	default:
		return SeverityError
	}
}
