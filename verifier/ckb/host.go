// Package ckb describes the read-only view of the enclosing transaction that
// the verifier is executed against.
package ckb

import (
	"errors"
	"fmt"
)

// Source selects which side of the transaction a query is made against.
type Source uint8

const (
	SourceInput Source = iota + 1
	SourceOutput
	SourceCellDep
)

func (s Source) String() string {
	switch s {
	case SourceInput:
		return "input"
	case SourceOutput:
		return "output"
	case SourceCellDep:
		return "cell_dep"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// Script is a lock or type script attached to a cell.
type Script struct {
	CodeHash [32]byte
	HashType uint8
	Args     []byte
}

// WitnessArgs is the structured form of a witness entry.
// A nil field is absent, which is distinct from a present but empty field.
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

// Host is the transaction accessor supplied by the execution environment.
// Implementations must treat every call as a pure read of an immutable snapshot.
type Host interface {
	LoadCellLock(index int, source Source) (*Script, error)
	// LoadCellType returns a nil script without error when the cell has no type script.
	LoadCellType(index int, source Source) (*Script, error)
	LoadCellData(index int, source Source) ([]byte, error)
	LoadWitnessArgs(index int, source Source) (*WitnessArgs, error)
	// LoadScript returns the script currently being executed.
	LoadScript() (*Script, error)
}

// Signals returned by a Host.
var (
	ErrIndexOutOfBound = errors.New("index out of bound")
	ErrItemMissing     = errors.New("item missing")
	ErrEncoding        = errors.New("encoding error")
)

// LengthNotEnoughError is returned when a read buffer is shorter than the item.
type LengthNotEnoughError struct {
	Len int
}

func (e LengthNotEnoughError) Error() string {
	return fmt.Sprintf("length not enough, item has %d bytes", e.Len)
}

// UnknownError carries a host status code with no defined meaning.
type UnknownError struct {
	Code uint64
}

func (e UnknownError) Error() string {
	return fmt.Sprintf("unknown host error: %d", e.Code)
}
