package mock

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/ibc-ckb/connverifier/verifier/ckb"
	"github.com/ibc-ckb/connverifier/verifier/common"
	"gopkg.in/yaml.v3"
)

// HexBytes is a byte string written as 0x-prefixed hex in fixtures.
type HexBytes []byte

func (b HexBytes) MarshalYAML() (interface{}, error) {
	return "0x" + hex.EncodeToString(b), nil
}

func (b *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	bz, err := common.HexStrToBytes(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*b = append(HexBytes{}, bz...)
	return nil
}

// Hex is a convenience for building optional witness fields.
func Hex(bz []byte) *HexBytes {
	b := append(HexBytes{}, bz...)
	return &b
}

func (b *HexBytes) bytes() []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, *b...)
}

type Script struct {
	CodeHash HexBytes `yaml:"code_hash,omitempty"`
	HashType uint8    `yaml:"hash_type,omitempty"`
	Args     HexBytes `yaml:"args"`
}

func (s Script) toScript() (*ckb.Script, error) {
	out := &ckb.Script{
		HashType: s.HashType,
		Args:     append([]byte{}, s.Args...),
	}
	if len(s.CodeHash) != 0 && len(s.CodeHash) != len(out.CodeHash) {
		return nil, fmt.Errorf("%w: code hash has %d bytes", ckb.ErrEncoding, len(s.CodeHash))
	}
	copy(out.CodeHash[:], s.CodeHash)
	return out, nil
}

type Cell struct {
	Lock Script   `yaml:"lock"`
	Type *Script  `yaml:"type,omitempty"`
	Data HexBytes `yaml:"data"`
}

// Witness mirrors ckb.WitnessArgs. An omitted field is absent.
type Witness struct {
	Lock       *HexBytes `yaml:"lock,omitempty"`
	InputType  *HexBytes `yaml:"input_type,omitempty"`
	OutputType *HexBytes `yaml:"output_type,omitempty"`
}

// Tx is a transaction fixture as seen by the executing script.
type Tx struct {
	Name      string    `yaml:"name,omitempty"`
	Script    Script    `yaml:"script"`
	Inputs    []Cell    `yaml:"inputs"`
	Outputs   []Cell    `yaml:"outputs"`
	CellDeps  []Cell    `yaml:"cell_deps"`
	Witnesses []Witness `yaml:"witnesses"`
}

func Decode(r io.Reader) (*Tx, error) {
	var tx Tx
	if err := yaml.NewDecoder(r).Decode(&tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Load reads a transaction fixture from a YAML file.
func Load(path string) (*Tx, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tx, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}
	return tx, nil
}

func (tx *Tx) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tx); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes tx to path, replacing any existing file.
func (tx *Tx) Save(path string) error {
	out, err := tx.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0600)
}

// ConnectionTx describes a transaction moving a connection cell. The
// connection objects and the envelope are given in their encoded form.
type ConnectionTx struct {
	Name        string
	LockArgs    []byte
	ClientID    []byte
	ClientState []byte
	Prev        []byte
	Next        []byte
	Envelope    []byte
}

// Build lays the transaction out the way the verifier reads it. The connection
// cell sits at index 0 on both sides and commits to the keccak hash of its
// witness. The client cell is the first dependency and the envelope is the
// last witness. No slice of c is shared with the result.
func (c ConnectionTx) Build() *Tx {
	prevHash := common.Keccak256(c.Prev)
	nextHash := common.Keccak256(c.Next)

	return &Tx{
		Name:   c.Name,
		Script: Script{Args: *Hex(c.ClientID)},
		Inputs: []Cell{{
			Lock: Script{Args: *Hex(c.LockArgs)},
			Data: prevHash[:],
		}},
		Outputs: []Cell{{
			Lock: Script{Args: *Hex(c.LockArgs)},
			Data: nextHash[:],
		}},
		CellDeps: []Cell{{
			Type: &Script{Args: *Hex(c.ClientID)},
			Data: *Hex(c.ClientState),
		}},
		Witnesses: []Witness{
			{InputType: Hex(c.Prev), OutputType: Hex(c.Next)},
			{OutputType: Hex(c.Envelope)},
		},
	}
}
