package verifier

import (
	"encoding/hex"
	"testing"

	"github.com/ibc-ckb/connverifier/verifier/ckb/mock"
	"github.com/ibc-ckb/connverifier/verifier/client"
	"github.com/ibc-ckb/connverifier/verifier/common"
	"github.com/ibc-ckb/connverifier/verifier/ibc"
	"github.com/stretchr/testify/require"
)

var (
	testClientID = [client.IDLength]byte{
		0x9b, 0x4f, 0x1e, 0x22, 0x5c, 0x03, 0x7a, 0x81,
		0x10, 0x2d, 0xe4, 0x66, 0xbf, 0x90, 0x31, 0x0c,
		0x55, 0x72, 0xaa, 0x19, 0x07, 0xd3, 0x48, 0x6e,
		0xc1, 0x24, 0x8f, 0x3b, 0x60, 0xee, 0x05, 0x97,
	}
	testClientHex = hex.EncodeToString(testClientID[:])

	testArgs = ibc.ConnectionArgs{
		ClientID:          testClientID,
		IbcHandlerAddress: [20]byte{0x42, 0x42},
	}

	counterpartyClientID = "07-tendermint-3"
	counterpartyPrefix   = []byte("ibc")
)

// handshakeTx assembles a transaction moving the connection cell from prev to next under msg.
func handshakeTx(t *testing.T, prev, next ibc.IbcConnections, msg ibc.Msg, clientState []byte) *mock.Tx {
	t.Helper()

	env, err := ibc.NewEnvelope(msg)
	require.NoError(t, err)

	return mock.ConnectionTx{
		Name:        msg.Type().String(),
		LockArgs:    testArgs.Bytes(),
		ClientID:    testClientID[:],
		ClientState: clientState,
		Prev:        ibc.MustEncode(prev),
		Next:        ibc.MustEncode(next),
		Envelope:    ibc.MustEncode(env),
	}.Build()
}

// envelopeTx carries only the envelope witness.
func envelopeTx(env ibc.Envelope) *mock.Tx {
	return &mock.Tx{
		Witnesses: []mock.Witness{{OutputType: mock.Hex(ibc.MustEncode(env))}},
	}
}

// proveConnection commits end under connectionID in a counterparty store
// and returns the proof together with the consensus state holding its root.
func proveConnection(t *testing.T, height uint64, prefix []byte, connectionID string, end ibc.ConnectionEnd) ([]byte, client.ConsensusState) {
	t.Helper()

	key := common.GetConnectionCommitmentKey(prefix, connectionID)
	proof, root, err := client.NewLeafProof(key, ibc.MustEncode(end))
	require.NoError(t, err)
	return proof, client.ConsensusState{Height: height, Root: root}
}

func clientState(t *testing.T, consensus ...client.ConsensusState) []byte {
	t.Helper()

	cs := client.ClientState{ChainID: "axon-1", ConsensusStates: consensus}
	for _, c := range consensus {
		if c.Height > cs.LatestHeight {
			cs.LatestHeight = c.Height
		}
	}
	bz, err := cs.Encode()
	require.NoError(t, err)
	return bz
}

// fakeClient is a light client with a fixed verdict.
type fakeClient struct {
	id  [client.IDLength]byte
	err error
}

func (c fakeClient) ID() [client.IDLength]byte { return c.id }

func (c fakeClient) VerifyMembership(uint64, []byte, []byte, []byte) error { return c.err }

func fakeFactory(verdict error) client.Factory {
	return func(id [client.IDLength]byte, _ []byte) (client.Client, error) {
		return fakeClient{id: id, err: verdict}, nil
	}
}
