package ibc

import (
	"bytes"
	"encoding/hex"
	"fmt"

	conntypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	"github.com/cosmos/ibc-go/v3/modules/core/exported"
	"go.uber.org/zap/zapcore"
)

var _ zapcore.ObjectMarshaler = ConnectionEnd{}
var _ zapcore.ObjectMarshaler = ConnectionArgs{}

// CommitmentPrefix is the store prefix under which this chain commits its
// connection ends. Counterparties record it in their view of our connection.
var CommitmentPrefix = []byte("ibc")

// State is the handshake state of a connection end.
// Values match the ibc-go connection states.
type State uint8

const (
	StateUninitialized State = State(conntypes.UNINITIALIZED)
	StateInit          State = State(conntypes.INIT)
	StateTryOpen       State = State(conntypes.TRYOPEN)
	StateOpen          State = State(conntypes.OPEN)
)

func (s State) String() string {
	return conntypes.State(s).String()
}

// Version is a connection version, an identifier plus the channel orderings it allows.
type Version struct {
	Identifier string
	Features   []string
}

func (v Version) String() string {
	return fmt.Sprintf("%s%v", v.Identifier, v.Features)
}

// Equal reports whether both versions have the same canonical encoding.
func (v Version) Equal(other Version) bool {
	a, errA := Encode(v)
	b, errB := Encode(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// ToExported converts v to the ibc-go representation used for negotiation.
func (v Version) ToExported() exported.Version {
	return v.toProto()
}

func (v Version) toProto() *conntypes.Version {
	return conntypes.NewVersion(v.Identifier, v.Features)
}

// VersionFromExported converts an ibc-go version back to its wire form.
func VersionFromExported(v exported.Version) Version {
	return Version{
		Identifier: v.GetIdentifier(),
		Features:   v.GetFeatures(),
	}
}

// ToExportedVersions converts a version list for ibc-go negotiation helpers.
func ToExportedVersions(versions []Version) []exported.Version {
	out := make([]exported.Version, len(versions))
	for i, v := range versions {
		out[i] = v.ToExported()
	}
	return out
}

// CompatibleVersions returns every version this chain supports, in order of preference.
func CompatibleVersions() []Version {
	supported := conntypes.GetCompatibleVersions()
	out := make([]Version, len(supported))
	for i, v := range supported {
		out[i] = VersionFromExported(v)
	}
	return out
}

// Counterparty is the remote end of a connection as seen from this chain.
type Counterparty struct {
	ClientID         string
	ConnectionID     string
	CommitmentPrefix []byte
}

// ConnectionEnd is one connection record.
type ConnectionEnd struct {
	State        State
	ClientID     string
	Counterparty Counterparty
	Versions     []Version
	DelayPeriod  uint64
}

// Equal reports whether both ends have the same canonical encoding.
func (c ConnectionEnd) Equal(other ConnectionEnd) bool {
	a, errA := Encode(c)
	b, errB := Encode(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// MarshalLogObject satisfies the zapcore.ObjectMarshaler interface
// so that you can use zap.Object("connection", c) when logging.
func (c ConnectionEnd) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("state", c.State.String())
	enc.AddString("client_id", c.ClientID)
	enc.AddString("counterparty_client_id", c.Counterparty.ClientID)
	enc.AddString("counterparty_connection_id", c.Counterparty.ConnectionID)
	enc.AddString("counterparty_prefix", string(c.Counterparty.CommitmentPrefix))
	enc.AddInt("versions", len(c.Versions))
	enc.AddUint64("delay_period", c.DelayPeriod)
	return nil
}

// IbcConnections is the connection object committed by a connection cell.
// A connection's identifier is derived from its position in Connections.
type IbcConnections struct {
	NextConnectionNumber uint64
	NextChannelNumber    uint64
	Connections          []ConnectionEnd
}

// Get returns the connection end with the given identifier.
func (c IbcConnections) Get(connectionID string) (int, ConnectionEnd, error) {
	idx, err := ConnectionIndex(connectionID)
	if err != nil {
		return 0, ConnectionEnd{}, err
	}
	if idx >= len(c.Connections) {
		return 0, ConnectionEnd{}, fmt.Errorf("connection %s not found", connectionID)
	}
	return idx, c.Connections[idx], nil
}

// ConnectionID formats the identifier of the connection stored at idx.
func ConnectionID(idx int) string {
	return conntypes.FormatConnectionIdentifier(uint64(idx))
}

// ConnectionIndex parses a connection identifier into its position.
// Only the canonical form is accepted, so "connection-01" does not alias "connection-1".
func ConnectionIndex(connectionID string) (int, error) {
	seq, err := conntypes.ParseConnectionSequence(connectionID)
	if err != nil {
		return 0, err
	}
	if seq > uint64(^uint32(0)) {
		return 0, fmt.Errorf("connection sequence %d out of range", seq)
	}
	if canonical := ConnectionID(int(seq)); canonical != connectionID {
		return 0, fmt.Errorf("connection identifier %s is not canonical, expected %s", connectionID, canonical)
	}
	return int(seq), nil
}

// ConnectionArgsLen is the size of the lock script args of a connection cell.
const ConnectionArgsLen = 32 + 20

// ConnectionArgs identifies a connection cell: the light client it is bound to
// and the handler contract on the counterparty chain.
type ConnectionArgs struct {
	ClientID          [32]byte
	IbcHandlerAddress [20]byte
}

// ParseConnectionArgs parses lock script args. Only the exact size is accepted.
func ParseConnectionArgs(bz []byte) (ConnectionArgs, error) {
	var args ConnectionArgs
	if len(bz) != ConnectionArgsLen {
		return args, fmt.Errorf("connection args must be %d bytes, got %d", ConnectionArgsLen, len(bz))
	}
	copy(args.ClientID[:], bz[:32])
	copy(args.IbcHandlerAddress[:], bz[32:])
	return args, nil
}

// Bytes returns the lock script args encoding of a.
func (a ConnectionArgs) Bytes() []byte {
	out := make([]byte, 0, ConnectionArgsLen)
	out = append(out, a.ClientID[:]...)
	return append(out, a.IbcHandlerAddress[:]...)
}

func (a ConnectionArgs) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("client_id", hex.EncodeToString(a.ClientID[:]))
	enc.AddString("ibc_handler_address", hex.EncodeToString(a.IbcHandlerAddress[:]))
	return nil
}
