package client

import (
	ics23 "github.com/confio/ics23/go"
	"github.com/gogo/protobuf/proto"
)

// NewLeafProof builds a single-leaf ICS-23 existence proof for key/value under
// the tendermint proof spec, returning the encoded proof and the root it
// commits to. It is meant for fixtures and tests where the counterparty store
// holds one entry.
func NewLeafProof(key, value []byte) (proof []byte, root []byte, err error) {
	exist := &ics23.ExistenceProof{
		Key:   key,
		Value: value,
		Leaf:  ics23.TendermintSpec.LeafSpec,
	}
	commitmentRoot, err := exist.Calculate()
	if err != nil {
		return nil, nil, err
	}

	proof, err = proto.Marshal(&ics23.CommitmentProof{
		Proof: &ics23.CommitmentProof_Exist{Exist: exist},
	})
	if err != nil {
		return nil, nil, err
	}
	return proof, commitmentRoot, nil
}
