package ibc

import (
	"errors"
	"fmt"

	conntypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	host "github.com/cosmos/ibc-go/v3/modules/core/24-host"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// MsgType tags the message carried by an Envelope.
type MsgType uint8

const (
	MsgTypeClientCreate MsgType = iota + 1
	MsgTypeClientUpdate
	MsgTypeClientMisbehaviour
	MsgTypeConnectionOpenInit
	MsgTypeConnectionOpenTry
	MsgTypeConnectionOpenAck
	MsgTypeConnectionOpenConfirm
	MsgTypeChannelOpenInit
	MsgTypeChannelOpenTry
	MsgTypeChannelOpenAck
	MsgTypeChannelOpenConfirm
	MsgTypeChannelCloseInit
	MsgTypeChannelCloseConfirm
	MsgTypeSendPacket
	MsgTypeRecvPacket
	MsgTypeAckPacket
	MsgTypeTimeoutPacket
)

var msgTypeNames = map[MsgType]string{
	MsgTypeClientCreate:          "MsgClientCreate",
	MsgTypeClientUpdate:          "MsgClientUpdate",
	MsgTypeClientMisbehaviour:    "MsgClientMisbehaviour",
	MsgTypeConnectionOpenInit:    "MsgConnectionOpenInit",
	MsgTypeConnectionOpenTry:     "MsgConnectionOpenTry",
	MsgTypeConnectionOpenAck:     "MsgConnectionOpenAck",
	MsgTypeConnectionOpenConfirm: "MsgConnectionOpenConfirm",
	MsgTypeChannelOpenInit:       "MsgChannelOpenInit",
	MsgTypeChannelOpenTry:        "MsgChannelOpenTry",
	MsgTypeChannelOpenAck:        "MsgChannelOpenAck",
	MsgTypeChannelOpenConfirm:    "MsgChannelOpenConfirm",
	MsgTypeChannelCloseInit:      "MsgChannelCloseInit",
	MsgTypeChannelCloseConfirm:   "MsgChannelCloseConfirm",
	MsgTypeSendPacket:            "MsgSendPacket",
	MsgTypeRecvPacket:            "MsgRecvPacket",
	MsgTypeAckPacket:             "MsgAckPacket",
	MsgTypeTimeoutPacket:         "MsgTimeoutPacket",
}

func (t MsgType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MsgType(%d)", uint8(t))
}

// IsConnectionHandshake reports whether t is one of the four connection handshake steps.
func (t MsgType) IsConnectionHandshake() bool {
	return t >= MsgTypeConnectionOpenInit && t <= MsgTypeConnectionOpenConfirm
}

// IsChannelHandshake reports whether t belongs to the channel handshake.
func (t MsgType) IsChannelHandshake() bool {
	return t >= MsgTypeChannelOpenInit && t <= MsgTypeChannelCloseConfirm
}

// Envelope carries the single governing message of a transaction.
type Envelope struct {
	MsgType MsgType
	Content []byte
}

// Msg is implemented only by the message variants of this package.
type Msg interface {
	Type() MsgType
	ValidateBasic() error
	MarshalLogObject(enc zapcore.ObjectEncoder) error

	isMsg()
}

var (
	_ Msg = (*MsgConnectionOpenInit)(nil)
	_ Msg = (*MsgConnectionOpenTry)(nil)
	_ Msg = (*MsgConnectionOpenAck)(nil)
	_ Msg = (*MsgConnectionOpenConfirm)(nil)
	_ Msg = (*MsgClientCreate)(nil)
)

// ErrUnsupportedMsg is returned by DecodeMsg for tags without a message variant here.
var ErrUnsupportedMsg = errors.New("unsupported message type")

// DecodeMsg decodes the content of env into its message variant.
func DecodeMsg(env Envelope) (Msg, error) {
	var msg Msg
	switch env.MsgType {
	case MsgTypeConnectionOpenInit:
		msg = &MsgConnectionOpenInit{}
	case MsgTypeConnectionOpenTry:
		msg = &MsgConnectionOpenTry{}
	case MsgTypeConnectionOpenAck:
		msg = &MsgConnectionOpenAck{}
	case MsgTypeConnectionOpenConfirm:
		msg = &MsgConnectionOpenConfirm{}
	case MsgTypeClientCreate:
		// the client itself lives in a dependency cell
		return &MsgClientCreate{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMsg, env.MsgType)
	}
	if err := Decode(env.Content, msg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", env.MsgType, err)
	}
	return msg, nil
}

// NewEnvelope encodes msg into an envelope.
func NewEnvelope(msg Msg) (Envelope, error) {
	content, err := Encode(msg)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{MsgType: msg.Type(), Content: content}, nil
}

type MsgConnectionOpenInit struct {
	ClientID     string
	Counterparty Counterparty
	Version      *Version `rlp:"nil"`
	DelayPeriod  uint64
}

func (*MsgConnectionOpenInit) isMsg() {}
func (*MsgConnectionOpenInit) Type() MsgType { return MsgTypeConnectionOpenInit }

func (m *MsgConnectionOpenInit) ValidateBasic() error {
	err := multierr.Combine(
		host.ClientIdentifierValidator(m.ClientID),
		host.ClientIdentifierValidator(m.Counterparty.ClientID),
		validatePrefix(m.Counterparty.CommitmentPrefix),
	)
	if m.Counterparty.ConnectionID != "" {
		err = multierr.Append(err, errors.New("counterparty connection identifier must be empty"))
	}
	if m.Version != nil {
		err = multierr.Append(err, conntypes.ValidateVersion(m.Version.toProto()))
	}
	return err
}

func (m *MsgConnectionOpenInit) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", m.Type().String())
	enc.AddString("client_id", m.ClientID)
	enc.AddString("counterparty_client_id", m.Counterparty.ClientID)
	if m.Version != nil {
		enc.AddString("version", m.Version.String())
	}
	enc.AddUint64("delay_period", m.DelayPeriod)
	return nil
}

type MsgConnectionOpenTry struct {
	// PreviousConnectionID is set when this chain already holds the connection in Init.
	PreviousConnectionID string
	ClientID             string
	Counterparty         Counterparty
	CounterpartyVersions []Version
	DelayPeriod          uint64
	ProofHeight          uint64
	ProofInit            []byte
}

func (*MsgConnectionOpenTry) isMsg() {}
func (*MsgConnectionOpenTry) Type() MsgType { return MsgTypeConnectionOpenTry }

func (m *MsgConnectionOpenTry) ValidateBasic() error {
	err := multierr.Combine(
		host.ClientIdentifierValidator(m.ClientID),
		host.ClientIdentifierValidator(m.Counterparty.ClientID),
		host.ConnectionIdentifierValidator(m.Counterparty.ConnectionID),
		validatePrefix(m.Counterparty.CommitmentPrefix),
		validateProof(m.ProofHeight, m.ProofInit),
	)
	if m.PreviousConnectionID != "" {
		err = multierr.Append(err, host.ConnectionIdentifierValidator(m.PreviousConnectionID))
	}
	if len(m.CounterpartyVersions) == 0 {
		err = multierr.Append(err, errors.New("empty counterparty versions"))
	}
	for _, v := range m.CounterpartyVersions {
		err = multierr.Append(err, conntypes.ValidateVersion(v.toProto()))
	}
	return err
}

func (m *MsgConnectionOpenTry) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", m.Type().String())
	enc.AddString("previous_connection_id", m.PreviousConnectionID)
	enc.AddString("client_id", m.ClientID)
	enc.AddString("counterparty_client_id", m.Counterparty.ClientID)
	enc.AddString("counterparty_connection_id", m.Counterparty.ConnectionID)
	enc.AddInt("counterparty_versions", len(m.CounterpartyVersions))
	enc.AddUint64("proof_height", m.ProofHeight)
	return nil
}

type MsgConnectionOpenAck struct {
	ConnectionID             string
	CounterpartyConnectionID string
	Version                  Version
	ProofHeight              uint64
	ProofTry                 []byte
}

func (*MsgConnectionOpenAck) isMsg() {}
func (*MsgConnectionOpenAck) Type() MsgType { return MsgTypeConnectionOpenAck }

func (m *MsgConnectionOpenAck) ValidateBasic() error {
	return multierr.Combine(
		host.ConnectionIdentifierValidator(m.ConnectionID),
		host.ConnectionIdentifierValidator(m.CounterpartyConnectionID),
		conntypes.ValidateVersion(m.Version.toProto()),
		validateProof(m.ProofHeight, m.ProofTry),
	)
}

func (m *MsgConnectionOpenAck) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", m.Type().String())
	enc.AddString("connection_id", m.ConnectionID)
	enc.AddString("counterparty_connection_id", m.CounterpartyConnectionID)
	enc.AddString("version", m.Version.String())
	enc.AddUint64("proof_height", m.ProofHeight)
	return nil
}

type MsgConnectionOpenConfirm struct {
	ConnectionID string
	ProofHeight  uint64
	ProofAck     []byte
}

func (*MsgConnectionOpenConfirm) isMsg() {}
func (*MsgConnectionOpenConfirm) Type() MsgType { return MsgTypeConnectionOpenConfirm }

func (m *MsgConnectionOpenConfirm) ValidateBasic() error {
	return multierr.Combine(
		host.ConnectionIdentifierValidator(m.ConnectionID),
		validateProof(m.ProofHeight, m.ProofAck),
	)
}

func (m *MsgConnectionOpenConfirm) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", m.Type().String())
	enc.AddString("connection_id", m.ConnectionID)
	enc.AddUint64("proof_height", m.ProofHeight)
	return nil
}

// MsgClientCreate has no payload, the created client is read from the dependency cell.
type MsgClientCreate struct{}

func (*MsgClientCreate) isMsg() {}
func (*MsgClientCreate) Type() MsgType { return MsgTypeClientCreate }
func (*MsgClientCreate) ValidateBasic() error { return nil }

func (m *MsgClientCreate) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", m.Type().String())
	return nil
}

func validatePrefix(prefix []byte) error {
	if len(prefix) == 0 {
		return errors.New("empty commitment prefix")
	}
	return nil
}

func validateProof(height uint64, proof []byte) error {
	var err error
	if height == 0 {
		err = errors.New("proof height must be non-zero")
	}
	if len(proof) == 0 {
		err = multierr.Append(err, errors.New("empty proof"))
	}
	return err
}
