package candidates

import "errors"

var (
	// ErrNotFound indicates the candidate id is unknown.
	ErrNotFound = errors.New("candidate not found")

	// ErrNoChange is returned by a mutation that decided not to write.
	ErrNoChange = errors.New("no change")

	// ErrDuplicate indicates a candidate id was created twice.
	ErrDuplicate = errors.New("candidate already exists")
)
