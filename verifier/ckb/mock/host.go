// Package mock provides an in-memory ckb.Host backed by a transaction fixture.
package mock

import (
	"fmt"

	"github.com/ibc-ckb/connverifier/verifier/ckb"
)

var _ ckb.Host = (*Host)(nil)

// Call identifies a single host query, used to inject failures.
type Call struct {
	Method string
	Index  int
	Source ckb.Source
}

// Host methods as named in a Call.
const (
	MethodLoadCellLock    = "load_cell_lock"
	MethodLoadCellType    = "load_cell_type"
	MethodLoadCellData    = "load_cell_data"
	MethodLoadWitnessArgs = "load_witness_args"
	MethodLoadScript      = "load_script"
)

// Host answers queries from a Tx. Witnesses are shared by the input and output
// sources; dependency cells have none.
type Host struct {
	tx     *Tx
	faults map[Call]error
}

func NewHost(tx *Tx) *Host {
	return &Host{
		tx:     tx,
		faults: make(map[Call]error),
	}
}

// Fail makes the given call return err instead of consulting the transaction.
func (h *Host) Fail(call Call, err error) *Host {
	h.faults[call] = err
	return h
}

func (h *Host) fault(method string, index int, source ckb.Source) error {
	return h.faults[Call{Method: method, Index: index, Source: source}]
}

func (h *Host) cell(index int, source ckb.Source) (Cell, error) {
	var cells []Cell
	switch source {
	case ckb.SourceInput:
		cells = h.tx.Inputs
	case ckb.SourceOutput:
		cells = h.tx.Outputs
	case ckb.SourceCellDep:
		cells = h.tx.CellDeps
	default:
		return Cell{}, fmt.Errorf("%w: %s", ckb.ErrEncoding, source)
	}
	if index < 0 || index >= len(cells) {
		return Cell{}, ckb.ErrIndexOutOfBound
	}
	return cells[index], nil
}

func (h *Host) LoadCellLock(index int, source ckb.Source) (*ckb.Script, error) {
	if err := h.fault(MethodLoadCellLock, index, source); err != nil {
		return nil, err
	}
	cell, err := h.cell(index, source)
	if err != nil {
		return nil, err
	}
	return cell.Lock.toScript()
}

func (h *Host) LoadCellType(index int, source ckb.Source) (*ckb.Script, error) {
	if err := h.fault(MethodLoadCellType, index, source); err != nil {
		return nil, err
	}
	cell, err := h.cell(index, source)
	if err != nil {
		return nil, err
	}
	if cell.Type == nil {
		return nil, nil
	}
	return cell.Type.toScript()
}

func (h *Host) LoadCellData(index int, source ckb.Source) ([]byte, error) {
	if err := h.fault(MethodLoadCellData, index, source); err != nil {
		return nil, err
	}
	cell, err := h.cell(index, source)
	if err != nil {
		return nil, err
	}
	return append([]byte{}, cell.Data...), nil
}

func (h *Host) LoadWitnessArgs(index int, source ckb.Source) (*ckb.WitnessArgs, error) {
	if err := h.fault(MethodLoadWitnessArgs, index, source); err != nil {
		return nil, err
	}
	if source == ckb.SourceCellDep || index < 0 || index >= len(h.tx.Witnesses) {
		return nil, ckb.ErrIndexOutOfBound
	}
	w := h.tx.Witnesses[index]
	return &ckb.WitnessArgs{
		Lock:       w.Lock.bytes(),
		InputType:  w.InputType.bytes(),
		OutputType: w.OutputType.bytes(),
	}, nil
}

func (h *Host) LoadScript() (*ckb.Script, error) {
	if err := h.fault(MethodLoadScript, 0, 0); err != nil {
		return nil, err
	}
	return h.tx.Script.toScript()
}
