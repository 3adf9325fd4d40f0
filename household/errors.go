/*
errors.go - Centralized error types for the household engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Expected "nothing to do" conditions (not found, already exists) are NOT
  errors here: they are reported through Outcome values. What remains are
  conditions that abort the calling operation.

ERROR CATEGORIES:
  1. Data errors - malformed period identifiers, dangling references
  2. Ingestion errors - bill recorded but cost entries missing
  3. Coordination errors - lock acquisition timeouts
  4. Room management errors - duplicate or missing rooms

USAGE:
  Domain packages wrap these errors with additional context:

    if errors.Is(err, household.ErrPartialIngestion) {
        // operator must reconcile the bill
    }

SEE ALSO:
  - types.go: Outcome values for recoverable conditions
  - billing/ingest.go: Produces PartialIngestionError
*/
package household

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriodID is returned when a period identifier is malformed.
	// Under correct internal use this indicates corrupted data.
	ErrInvalidPeriodID = errors.New("invalid period id")

	// ErrPartialIngestion is returned when a bill was recorded but one or
	// more of its cost entries could not be written.
	ErrPartialIngestion = errors.New("partial bill ingestion")

	// ErrBillNotFound is returned when a cost entry or a reconcile request
	// references a bill that does not exist.
	ErrBillNotFound = errors.New("bill not found")

	// ErrRoomNotFound is returned when a referenced room does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrDuplicateRoom is returned when creating a room whose ID is taken.
	ErrDuplicateRoom = errors.New("room already exists")

	// ErrLockTimeout is returned when a coordination lock cannot be acquired
	// before the deadline.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrInvalidAmount is returned for negative or missing money values.
	ErrInvalidAmount = errors.New("invalid amount")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidPeriodError names the identifier that failed to parse.
type InvalidPeriodError struct {
	ID     PeriodID
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period id %q: %s", e.ID, e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error {
	return ErrInvalidPeriodID
}

// PartialIngestionError describes a bill whose cost entries were not all
// written. The bill itself exists; MissingRooms need reconciliation.
type PartialIngestionError struct {
	BillID       BillID
	Written      int
	MissingRooms []RoomID
	Cause        error
}

func (e *PartialIngestionError) Error() string {
	rooms := make([]string, len(e.MissingRooms))
	for i, r := range e.MissingRooms {
		rooms[i] = string(r)
	}
	return fmt.Sprintf("bill %s recorded with %d cost entries, missing [%s]: %v",
		e.BillID, e.Written, strings.Join(rooms, ", "), e.Cause)
}

func (e *PartialIngestionError) Unwrap() []error {
	return []error{ErrPartialIngestion, e.Cause}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriodID) ||
		errors.Is(err, ErrDuplicateRoom) ||
		errors.Is(err, ErrInvalidAmount)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBillNotFound) ||
		errors.Is(err, ErrRoomNotFound)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
