// Package verifier decides whether a transaction performs a legal step of the
// IBC connection handshake on a connection cell.
//
// A verification call reads the transaction through a ckb.Host, locates the
// governing envelope among the witnesses, loads the previous and next connection
// objects from hash-committed cells and checks the transition against the
// light client loaded from the first dependency cell. The first failure aborts
// the call; ExitCode maps it to the status reported to the host.
package verifier

import (
	"bytes"
	"errors"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/ibc-ckb/connverifier/verifier/ckb"
	"github.com/ibc-ckb/connverifier/verifier/client"
	"github.com/ibc-ckb/connverifier/verifier/common"
	"github.com/ibc-ckb/connverifier/verifier/ibc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// witnessProbeLimit is the largest witness count a transaction may carry.
	witnessProbeLimit = 99

	connectionCellIndex = 0
	clientCellIndex     = 0
)

// Verifier holds no state between calls and may be shared by concurrent callers.
type Verifier struct {
	log       *zap.Logger
	newClient client.Factory
}

type Option func(*Verifier)

// WithClientFactory replaces the light client constructed from the client cell.
func WithClientFactory(f client.Factory) Option {
	return func(v *Verifier) {
		v.newClient = f
	}
}

func New(log *zap.Logger, opts ...Option) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	v := &Verifier{
		log:       log,
		newClient: client.NewAxonClient,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the transaction exposed by h with the default light client.
func Verify(h ckb.Host) error {
	return New(nil).Verify(h)
}

// Verify returns nil when the transaction is accepted, otherwise an error
// registered in the verifier codespace.
func (v *Verifier) Verify(h ckb.Host) error {
	env, err := loadEnvelope(h)
	if err != nil {
		return err
	}
	log := v.log.With(zap.Stringer("msg_type", env.MsgType))

	switch {
	case env.MsgType.IsConnectionHandshake():
	case env.MsgType.IsChannelHandshake():
		log.Debug("Channel handshake message is verified by the channel script")
		return nil
	case env.MsgType == ibc.MsgTypeClientCreate:
		return v.checkCreate(h, log)
	default:
		return ErrUnexpectedMsg.Wrapf("%s", env.MsgType)
	}

	c, err := v.loadClient(h)
	if err != nil {
		return err
	}
	if m, ok := c.(zapcore.ObjectMarshaler); ok {
		log = log.With(zap.Object("client", m))
	}
	prev, next, err := loadConnectionCells(h)
	if err != nil {
		return err
	}

	msg, err := ibc.DecodeMsg(env)
	if err != nil {
		return sdkerrors.Wrap(ErrMsgEncoding, err.Error())
	}

	var handleErr error
	switch m := msg.(type) {
	case *ibc.MsgConnectionOpenInit:
		handleErr = handleConnectionOpenInit(c, prev, next, m)
	case *ibc.MsgConnectionOpenTry:
		handleErr = handleConnectionOpenTry(c, prev, next, m)
	case *ibc.MsgConnectionOpenAck:
		handleErr = handleConnectionOpenAck(c, prev, next, m)
	case *ibc.MsgConnectionOpenConfirm:
		handleErr = handleConnectionOpenConfirm(c, prev, next, m)
	default:
		return ErrUnexpectedMsg.Wrapf("no connection handler for %s", msg.Type())
	}
	if handleErr != nil {
		log.Debug(
			"Rejected connection handshake",
			zap.Object("msg", msg),
			zap.Object("args", next.Args),
			zap.Error(handleErr),
		)
		return sdkerrors.Wrap(ErrConnectionProofInvalid, handleErr.Error())
	}

	log.Debug(
		"Accepted connection handshake",
		zap.Object("msg", msg),
		zap.Object("args", next.Args),
		zap.Int("connections", len(next.Connections.Connections)),
	)
	return nil
}

// connectionCell is a connection object together with the args of the cell committing to it.
type connectionCell struct {
	Connections ibc.IbcConnections
	Args        ibc.ConnectionArgs
}

// loadEnvelope decodes the envelope carried by the last input witness.
func loadEnvelope(h ckb.Host) (ibc.Envelope, error) {
	if _, err := h.LoadWitnessArgs(witnessProbeLimit, ckb.SourceInput); !errors.Is(err, ckb.ErrIndexOutOfBound) {
		return ibc.Envelope{}, ErrWitnessTooMany
	}

	count := 0
	for ; count < witnessProbeLimit; count++ {
		if _, err := h.LoadWitnessArgs(count, ckb.SourceInput); errors.Is(err, ckb.ErrIndexOutOfBound) {
			break
		}
	}
	if count == 0 {
		return ibc.Envelope{}, ErrWitnessIsNotExisted
	}

	last, err := h.LoadWitnessArgs(count-1, ckb.SourceInput)
	if err != nil {
		return ibc.Envelope{}, fromHostError(err)
	}
	if last.OutputType == nil {
		return ibc.Envelope{}, ErrWitnessIsIncorrect
	}
	env, err := ibc.DecodeEnvelope(last.OutputType)
	if err != nil {
		return ibc.Envelope{}, sdkerrors.Wrap(ErrEnvelopeEncoding, err.Error())
	}
	return env, nil
}

// loadConnectionCells loads the previous and next connection objects and
// checks each against the hash committed in its cell data. Both locks are read
// before any data, and both witnesses must carry a connection before either
// hash is compared.
func loadConnectionCells(h ckb.Host) (prev, next connectionCell, err error) {
	outLock, err := h.LoadCellLock(connectionCellIndex, ckb.SourceOutput)
	if err != nil {
		return prev, next, sdkerrors.Wrap(ErrConnectionLock, err.Error())
	}
	if next.Args, err = ibc.ParseConnectionArgs(outLock.Args); err != nil {
		return prev, next, sdkerrors.Wrap(ErrConnectionLock, err.Error())
	}
	inLock, err := h.LoadCellLock(connectionCellIndex, ckb.SourceInput)
	if err != nil {
		return prev, next, sdkerrors.Wrap(ErrConnectionLock, err.Error())
	}
	if prev.Args, err = ibc.ParseConnectionArgs(inLock.Args); err != nil {
		return prev, next, sdkerrors.Wrap(ErrConnectionLock, err.Error())
	}

	inHash, err := loadCommitment(h, ckb.SourceInput)
	if err != nil {
		return prev, next, err
	}
	outHash, err := loadCommitment(h, ckb.SourceOutput)
	if err != nil {
		return prev, next, err
	}

	inWitness, err := h.LoadWitnessArgs(connectionCellIndex, ckb.SourceInput)
	if err != nil {
		return prev, next, fromHostError(err)
	}
	outWitness, err := h.LoadWitnessArgs(connectionCellIndex, ckb.SourceOutput)
	if err != nil {
		return prev, next, fromHostError(err)
	}
	if inWitness.InputType == nil || outWitness.OutputType == nil {
		return prev, next, ErrConnectionEncoding.Wrap("witness carries no connection")
	}

	if prev.Connections, err = decodeCommitted(inWitness.InputType, inHash, ckb.SourceInput); err != nil {
		return prev, next, err
	}
	if next.Connections, err = decodeCommitted(outWitness.OutputType, outHash, ckb.SourceOutput); err != nil {
		return prev, next, err
	}
	return prev, next, nil
}

// loadCommitment reads the connection hash stored in the cell data of one side.
func loadCommitment(h ckb.Host, source ckb.Source) ([]byte, error) {
	committed, err := h.LoadCellData(connectionCellIndex, source)
	if err != nil {
		return nil, fromHostError(err)
	}
	if len(committed) != common.HashLength {
		return nil, ErrConnectionHashUnmatch.Wrapf("%s cell data has %d bytes", source, len(committed))
	}
	return committed, nil
}

func decodeCommitted(payload, committed []byte, source ckb.Source) (ibc.IbcConnections, error) {
	if hash := common.Keccak256(payload); !bytes.Equal(hash[:], committed) {
		return ibc.IbcConnections{}, ErrConnectionHashUnmatch.Wrapf("%s witness hash %x, committed %x", source, hash, committed)
	}
	conns, err := ibc.DecodeConnections(payload)
	if err != nil {
		return ibc.IbcConnections{}, sdkerrors.Wrap(ErrConnectionEncoding, err.Error())
	}
	return conns, nil
}

// loadClient builds the light client from the first dependency cell.
func (v *Verifier) loadClient(h ckb.Host) (client.Client, error) {
	state, err := h.LoadCellData(clientCellIndex, ckb.SourceCellDep)
	if err != nil {
		return nil, sdkerrors.Wrap(ErrLoadCellDataErr, err.Error())
	}
	typeScript, err := h.LoadCellType(clientCellIndex, ckb.SourceCellDep)
	if err != nil {
		return nil, sdkerrors.Wrap(ErrLoadCellDataErr, err.Error())
	}
	if typeScript == nil {
		return nil, ErrLoadCellDataErr.Wrap("client cell has no type script")
	}
	if len(typeScript.Args) != client.IDLength {
		return nil, ErrLoadCellDataErr.Wrapf("client id has %d bytes", len(typeScript.Args))
	}

	var id [client.IDLength]byte
	copy(id[:], typeScript.Args)
	c, err := v.newClient(id, state)
	if err != nil {
		return nil, sdkerrors.Wrap(ErrLoadCellDataErr, err.Error())
	}
	return c, nil
}

// checkCreate accepts a client creation only when the executing script is
// paired with the client cell it creates.
func (v *Verifier) checkCreate(h ckb.Host, log *zap.Logger) error {
	c, err := v.loadClient(h)
	if err != nil {
		return err
	}
	script, err := h.LoadScript()
	if err != nil {
		return sdkerrors.Wrap(ErrLoadScriptErr, err.Error())
	}
	id := c.ID()
	if !bytes.Equal(script.Args, id[:]) {
		return ErrClientCreateWrongClientID.Wrapf("script args %x, client id %x", script.Args, id)
	}
	log.Debug("Accepted client creation", zap.Binary("client_id", id[:]))
	return nil
}
