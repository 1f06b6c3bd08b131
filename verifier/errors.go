package verifier

import (
	"errors"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/ibc-ckb/connverifier/verifier/ckb"
)

// Codespace scopes the verifier errors among other registered error codes.
const Codespace = "connverify"

// Code is the exit status a verification call terminates with. Zero accepts.
type Code int8

const CodeOK Code = 0

const (
	CodeIndexOutOfBound Code = iota + 1
	CodeItemMissing
	CodeLengthNotEnough
	CodeEncoding
	CodeUnknownSysError

	CodeConnectionEncoding
	CodeChannelEncoding
	CodePacketEncoding
	CodeEnvelopeEncoding
	CodeMsgEncoding

	CodeWitnessIsNotExisted
	CodeWitnessIsIncorrect
	CodeWitnessTooMany

	CodeLoadCellDataErr
	CodeLoadScriptErr
	CodeConnectionLock
	CodeChannelLock
	CodePacketLock

	CodeConnectionHashUnmatch
	CodeChannelHashUnmatch
	CodeClientCreateWrongClientID

	CodeUnexpectedMsg
	CodeConnectionProofInvalid
	CodeChannelProofInvalid
	CodePacketProofInvalid
)

// registered holds the taxonomy in registration order, which is code order.
var registered []*sdkerrors.Error

func register(code Code, desc string) *sdkerrors.Error {
	e := sdkerrors.Register(Codespace, uint32(code), desc)
	registered = append(registered, e)
	return e
}

// verifier sentinel errors
var (
	ErrIndexOutOfBound = register(CodeIndexOutOfBound, "index out of bound")
	ErrItemMissing     = register(CodeItemMissing, "item missing")
	ErrLengthNotEnough = register(CodeLengthNotEnough, "length not enough")
	ErrEncoding        = register(CodeEncoding, "encoding error")
	ErrUnknownSysError = register(CodeUnknownSysError, "unknown host error")

	ErrConnectionEncoding = register(CodeConnectionEncoding, "connection encoding")
	ErrChannelEncoding    = register(CodeChannelEncoding, "channel encoding")
	ErrPacketEncoding     = register(CodePacketEncoding, "packet encoding")
	ErrEnvelopeEncoding   = register(CodeEnvelopeEncoding, "envelope encoding")
	ErrMsgEncoding        = register(CodeMsgEncoding, "message encoding")

	ErrWitnessIsNotExisted = register(CodeWitnessIsNotExisted, "witness is not existed")
	ErrWitnessIsIncorrect  = register(CodeWitnessIsIncorrect, "witness is incorrect")
	ErrWitnessTooMany      = register(CodeWitnessTooMany, "too many witnesses")

	ErrLoadCellDataErr = register(CodeLoadCellDataErr, "failed to load client cell")
	ErrLoadScriptErr   = register(CodeLoadScriptErr, "failed to load script")
	ErrConnectionLock  = register(CodeConnectionLock, "invalid connection lock args")
	ErrChannelLock     = register(CodeChannelLock, "invalid channel lock args")
	ErrPacketLock      = register(CodePacketLock, "invalid packet lock args")

	ErrConnectionHashUnmatch     = register(CodeConnectionHashUnmatch, "connection hash unmatch")
	ErrChannelHashUnmatch        = register(CodeChannelHashUnmatch, "channel hash unmatch")
	ErrClientCreateWrongClientID = register(CodeClientCreateWrongClientID, "client create with wrong client id")

	ErrUnexpectedMsg          = register(CodeUnexpectedMsg, "unexpected message")
	ErrConnectionProofInvalid = register(CodeConnectionProofInvalid, "connection proof invalid")
	ErrChannelProofInvalid    = register(CodeChannelProofInvalid, "channel proof invalid")
	ErrPacketProofInvalid     = register(CodePacketProofInvalid, "packet proof invalid")
)

// ExitCode maps the result of a verification call to its exit status.
// Errors outside the verifier codespace map to CodeUnknownSysError.
func ExitCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *sdkerrors.Error
	if errors.As(err, &e) && e.Codespace() == Codespace {
		return Code(e.ABCICode())
	}
	return CodeUnknownSysError
}

// Codes returns every registered error ordered by code.
func Codes() []*sdkerrors.Error {
	return append([]*sdkerrors.Error(nil), registered...)
}

// fromHostError surfaces a host signal verbatim as its taxonomy code.
func fromHostError(err error) error {
	var lengthErr ckb.LengthNotEnoughError
	switch {
	case errors.Is(err, ckb.ErrIndexOutOfBound):
		return sdkerrors.Wrap(ErrIndexOutOfBound, err.Error())
	case errors.Is(err, ckb.ErrItemMissing):
		return sdkerrors.Wrap(ErrItemMissing, err.Error())
	case errors.As(err, &lengthErr):
		return sdkerrors.Wrap(ErrLengthNotEnough, err.Error())
	case errors.Is(err, ckb.ErrEncoding):
		return sdkerrors.Wrap(ErrEncoding, err.Error())
	default:
		return sdkerrors.Wrap(ErrUnknownSysError, err.Error())
	}
}
