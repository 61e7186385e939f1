package store

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/vKV/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// IStore is the generic interface for interacting with a validated key–value store.
// Every write and every read is routed through a rules.Dispatcher before the
// underlying db is mutated or a value is returned.
// All operations return a *Error (nil on success).
type IStore interface {
	// Add validates value for key and, if the rules accept it, stores the raw value.
	// Re-adding a key replaces its value after re-validation.
	// A rejected value returns an error with RetCInvalidInput and leaves the store unchanged.
	Add(key, value string) (err error)
	// Get returns the display value for key.
	// If no rule formats the value the raw stored value is returned.
	// An absent key returns an error with RetCNotFound, the rules are not consulted in this case.
	Get(key string) (value string, err error)
	// ListKeys returns all keys currently stored. The order is unspecified.
	ListKeys() (keys []string)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
// The result is the message shown to the user, e.g. "not found" or "invalid input: bad date".
func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// CodeOf returns the RetCode of err. A nil error yields RetCSuccess,
// an error that is not a *Error yields RetCInternalError.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternalError
}

// IsNotFound reports whether err was caused by an absent key.
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == RetCNotFound
}

// IsInvalid reports whether err was caused by a value the rules rejected.
func IsInvalid(err error) bool {
	return err != nil && CodeOf(err) == RetCInvalidInput
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCNotFound                            // 3: The key is not in the store.
	RetCInvalidInput                        // 4: The rules rejected the value.
	RetCRuleEngineFailure                   // 5: The rule engine could not be invoked.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "success"
	case RetCInternalError:
		return "internal error"
	case RetCUnsupportedOperation:
		return "unsupported operation"
	case RetCNotFound:
		return "not found"
	case RetCInvalidInput:
		return "invalid input"
	case RetCRuleEngineFailure:
		return "rule engine failure"
	default:
		return fmt.Sprintf("RetCode(%d)", uint64(c))
	}
}
