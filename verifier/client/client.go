// Package client provides the light client the handshake verifier trusts for
// statements about the counterparty chain.
package client

import (
	"errors"
	"fmt"

	ics23 "github.com/confio/ics23/go"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gogo/protobuf/proto"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	"go.uber.org/zap/zapcore"
)

// IDLength is the size of a light client identity.
const IDLength = 32

var (
	ErrClientFrozen      = errors.New("client is frozen")
	ErrConsensusNotFound = errors.New("consensus state not found")
	ErrInvalidProof      = errors.New("invalid proof")
	ErrInvalidRoot       = errors.New("invalid commitment root")
)

// Client attests to membership of key/value pairs in the counterparty chain's
// state at a verified height. Implementations must not be mutated by callers.
type Client interface {
	ID() [IDLength]byte
	VerifyMembership(height uint64, proof, key, value []byte) error
}

// Factory builds a Client from the identity and state blob of a client cell.
type Factory func(id [IDLength]byte, state []byte) (Client, error)

// ConsensusState is the verified commitment root at one height.
type ConsensusState struct {
	Height uint64
	Root   []byte
}

// ClientState is the state blob stored in a client cell.
type ClientState struct {
	ChainID      string
	LatestHeight uint64
	// FrozenHeight is zero for an active client.
	FrozenHeight    uint64
	ConsensusStates []ConsensusState
}

// Encode returns the cell data encoding of cs.
func (cs ClientState) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(cs)
}

func (cs ClientState) consensusState(height uint64) (ConsensusState, bool) {
	for _, s := range cs.ConsensusStates {
		if s.Height == height {
			return s, true
		}
	}
	return ConsensusState{}, false
}

// AxonClient verifies ICS-23 commitment proofs against the consensus states
// stored in its client cell.
type AxonClient struct {
	id    [IDLength]byte
	state ClientState
}

var _ Client = (*AxonClient)(nil)
var _ zapcore.ObjectMarshaler = (*AxonClient)(nil)

// NewAxonClient decodes a client state blob. It satisfies Factory.
func NewAxonClient(id [IDLength]byte, state []byte) (Client, error) {
	var cs ClientState
	if err := rlp.DecodeBytes(state, &cs); err != nil {
		return nil, fmt.Errorf("decoding client state: %w", err)
	}
	for _, s := range cs.ConsensusStates {
		if len(s.Root) != 32 {
			return nil, fmt.Errorf("%w at height %d: %d bytes", ErrInvalidRoot, s.Height, len(s.Root))
		}
	}
	return &AxonClient{id: id, state: cs}, nil
}

func (c *AxonClient) ID() [IDLength]byte {
	return c.id
}

func (c *AxonClient) State() ClientState {
	return c.state
}

// VerifyMembership checks that proof commits value under key in the root
// verified at height.
func (c *AxonClient) VerifyMembership(height uint64, proof, key, value []byte) error {
	if c.state.FrozenHeight != 0 && height >= c.state.FrozenHeight {
		return fmt.Errorf("%w at height %d", ErrClientFrozen, c.state.FrozenHeight)
	}
	if height > c.state.LatestHeight {
		return fmt.Errorf("%w: height %d is above latest height %d", ErrConsensusNotFound, height, c.state.LatestHeight)
	}
	consState, ok := c.state.consensusState(height)
	if !ok {
		return fmt.Errorf("%w: height %d", ErrConsensusNotFound, height)
	}

	var commitmentProof ics23.CommitmentProof
	if err := proto.Unmarshal(proof, &commitmentProof); err != nil {
		return fmt.Errorf("%w: unmarshal proof: %v", ErrInvalidProof, err)
	}

	if ics23.VerifyMembership(ics23.TendermintSpec, consState.Root, &commitmentProof, key, value) {
		return nil
	}
	if ics23.VerifyMembership(ics23.IavlSpec, consState.Root, &commitmentProof, key, value) {
		return nil
	}
	return ErrInvalidProof
}

// MarshalLogObject satisfies the zapcore.ObjectMarshaler interface
// so that you can use zap.Object("client", c) when logging.
func (c *AxonClient) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", tmbytes.HexBytes(c.id[:]).String())
	enc.AddString("chain_id", c.state.ChainID)
	enc.AddUint64("latest_height", c.state.LatestHeight)
	enc.AddUint64("frozen_height", c.state.FrozenHeight)
	return nil
}
