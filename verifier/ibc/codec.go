package ibc

import (
	"github.com/ethereum/go-ethereum/rlp"
)

// Encode returns the canonical RLP encoding of v.
func Encode(v interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// MustEncode is Encode for values known to be encodable.
func MustEncode(v interface{}) []byte {
	bz, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return bz
}

// Decode parses bz into v. The whole input must be consumed.
func Decode(bz []byte, v interface{}) error {
	return rlp.DecodeBytes(bz, v)
}

func DecodeEnvelope(bz []byte) (Envelope, error) {
	var env Envelope
	err := Decode(bz, &env)
	return env, err
}

func DecodeConnections(bz []byte) (IbcConnections, error) {
	var conns IbcConnections
	err := Decode(bz, &conns)
	return conns, err
}
