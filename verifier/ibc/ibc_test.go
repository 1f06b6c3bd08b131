package ibc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testClientID             = "07-tendermint-0"
	testCounterpartyClientID = "07-tendermint-9"
)

func TestParseConnectionArgs(t *testing.T) {
	var args ConnectionArgs
	args.ClientID[0] = 0xaa
	args.IbcHandlerAddress[19] = 0xbb

	bz := args.Bytes()
	require.Len(t, bz, ConnectionArgsLen)

	parsed, err := ParseConnectionArgs(bz)
	require.NoError(t, err)
	require.Equal(t, args, parsed)

	_, err = ParseConnectionArgs(bz[:ConnectionArgsLen-1])
	require.Error(t, err)

	_, err = ParseConnectionArgs(append(bz, 0x00))
	require.Error(t, err)
}

func TestConnectionIdentifiers(t *testing.T) {
	require.Equal(t, "connection-0", ConnectionID(0))
	require.Equal(t, "connection-12", ConnectionID(12))

	idx, err := ConnectionIndex("connection-12")
	require.NoError(t, err)
	require.Equal(t, 12, idx)

	_, err = ConnectionIndex("channel-1")
	require.Error(t, err)

	conns := IbcConnections{Connections: []ConnectionEnd{{State: StateInit, ClientID: testClientID}}}
	i, end, err := conns.Get("connection-0")
	require.NoError(t, err)
	require.Equal(t, 0, i)
	require.Equal(t, StateInit, end.State)

	_, _, err = conns.Get("connection-1")
	require.Error(t, err)

	for _, alias := range []string{"connection-00", "connection-012"} {
		_, err = ConnectionIndex(alias)
		require.Error(t, err, alias)
	}
	_, _, err = conns.Get("connection-00")
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "STATE_INIT", StateInit.String())
	require.Equal(t, "STATE_TRYOPEN", StateTryOpen.String())
	require.Equal(t, "STATE_OPEN", StateOpen.String())
}

func TestCompatibleVersions(t *testing.T) {
	versions := CompatibleVersions()
	require.Len(t, versions, 1)
	require.Equal(t, "1", versions[0].Identifier)
	require.Equal(t, []string{"ORDER_ORDERED", "ORDER_UNORDERED"}, versions[0].Features)

	exported := ToExportedVersions(versions)
	require.Len(t, exported, 1)
	require.Equal(t, versions[0], VersionFromExported(exported[0]))
}

func TestConnectionEndEqualIgnoresNilVsEmpty(t *testing.T) {
	a := ConnectionEnd{
		State:    StateInit,
		ClientID: testClientID,
		Versions: []Version{{Identifier: "1"}},
	}
	b := a
	b.Versions = []Version{{Identifier: "1", Features: []string{}}}
	b.Counterparty.CommitmentPrefix = []byte{}
	require.True(t, a.Equal(b))

	b.DelayPeriod = 1
	require.False(t, a.Equal(b))
}

func TestConnectionsRoundTrip(t *testing.T) {
	conns := IbcConnections{
		NextConnectionNumber: 1,
		Connections: []ConnectionEnd{{
			State:    StateTryOpen,
			ClientID: testClientID,
			Counterparty: Counterparty{
				ClientID:         testCounterpartyClientID,
				ConnectionID:     "connection-4",
				CommitmentPrefix: []byte("ibc"),
			},
			Versions:    CompatibleVersions(),
			DelayPeriod: 10,
		}},
	}
	bz, err := Encode(conns)
	require.NoError(t, err)

	decoded, err := DecodeConnections(bz)
	require.NoError(t, err)
	require.Equal(t, conns.NextConnectionNumber, decoded.NextConnectionNumber)
	require.Len(t, decoded.Connections, 1)
	require.True(t, conns.Connections[0].Equal(decoded.Connections[0]))

	// trailing data is never partially parsed
	_, err = DecodeConnections(append(bz, 0x01))
	require.Error(t, err)

	_, err = DecodeConnections([]byte{0xc1})
	require.Error(t, err)
}

func TestDecodeMsg(t *testing.T) {
	msg := &MsgConnectionOpenAck{
		ConnectionID:             "connection-0",
		CounterpartyConnectionID: "connection-3",
		Version:                  CompatibleVersions()[0],
		ProofHeight:              7,
		ProofTry:                 []byte{1, 2, 3},
	}
	env, err := NewEnvelope(msg)
	require.NoError(t, err)
	require.Equal(t, MsgTypeConnectionOpenAck, env.MsgType)

	bz := MustEncode(env)
	decodedEnv, err := DecodeEnvelope(bz)
	require.NoError(t, err)

	decoded, err := DecodeMsg(decodedEnv)
	require.NoError(t, err)
	require.Equal(t, msg, decoded)

	// a type tag that disagrees with the content fails to decode
	_, err = DecodeMsg(Envelope{MsgType: MsgTypeConnectionOpenConfirm, Content: env.Content})
	require.Error(t, err)

	_, err = DecodeMsg(Envelope{MsgType: MsgTypeRecvPacket})
	require.ErrorIs(t, err, ErrUnsupportedMsg)

	create, err := DecodeMsg(Envelope{MsgType: MsgTypeClientCreate, Content: []byte("ignored")})
	require.NoError(t, err)
	require.IsType(t, &MsgClientCreate{}, create)
}

func TestMsgConnectionOpenInitOptionalVersion(t *testing.T) {
	msg := &MsgConnectionOpenInit{
		ClientID: testClientID,
		Counterparty: Counterparty{
			ClientID:         testCounterpartyClientID,
			CommitmentPrefix: []byte("ibc"),
		},
	}
	bz := MustEncode(msg)

	var decoded MsgConnectionOpenInit
	require.NoError(t, Decode(bz, &decoded))
	require.Nil(t, decoded.Version)
	require.NoError(t, decoded.ValidateBasic())

	v := CompatibleVersions()[0]
	msg.Version = &v
	require.NoError(t, Decode(MustEncode(msg), &decoded))
	require.NotNil(t, decoded.Version)
	require.Equal(t, v.Identifier, decoded.Version.Identifier)
}

func TestMsgTypeClassification(t *testing.T) {
	require.True(t, MsgTypeConnectionOpenInit.IsConnectionHandshake())
	require.True(t, MsgTypeConnectionOpenConfirm.IsConnectionHandshake())
	require.False(t, MsgTypeChannelOpenInit.IsConnectionHandshake())

	require.True(t, MsgTypeChannelOpenInit.IsChannelHandshake())
	require.True(t, MsgTypeChannelCloseConfirm.IsChannelHandshake())
	require.False(t, MsgTypeSendPacket.IsChannelHandshake())
	require.False(t, MsgTypeClientCreate.IsChannelHandshake())

	require.Equal(t, "MsgConnectionOpenTry", MsgTypeConnectionOpenTry.String())
	require.Equal(t, "MsgType(200)", MsgType(200).String())
}

func TestValidateBasic(t *testing.T) {
	counterparty := Counterparty{
		ClientID:         testCounterpartyClientID,
		ConnectionID:     "connection-1",
		CommitmentPrefix: []byte("ibc"),
	}

	testCases := []struct {
		name    string
		msg     Msg
		expPass bool
	}{
		{"valid init", &MsgConnectionOpenInit{ClientID: testClientID, Counterparty: Counterparty{ClientID: testCounterpartyClientID, CommitmentPrefix: []byte("ibc")}}, true},
		{"init with counterparty connection", &MsgConnectionOpenInit{ClientID: testClientID, Counterparty: counterparty}, false},
		{"init with invalid client", &MsgConnectionOpenInit{ClientID: "x", Counterparty: Counterparty{ClientID: testCounterpartyClientID, CommitmentPrefix: []byte("ibc")}}, false},
		{"init with empty prefix", &MsgConnectionOpenInit{ClientID: testClientID, Counterparty: Counterparty{ClientID: testCounterpartyClientID}}, false},
		{"init with invalid version", &MsgConnectionOpenInit{ClientID: testClientID, Counterparty: Counterparty{ClientID: testCounterpartyClientID, CommitmentPrefix: []byte("ibc")}, Version: &Version{}}, false},
		{"valid try", &MsgConnectionOpenTry{ClientID: testClientID, Counterparty: counterparty, CounterpartyVersions: CompatibleVersions(), ProofHeight: 1, ProofInit: []byte{1}}, true},
		{"try without versions", &MsgConnectionOpenTry{ClientID: testClientID, Counterparty: counterparty, ProofHeight: 1, ProofInit: []byte{1}}, false},
		{"try without proof", &MsgConnectionOpenTry{ClientID: testClientID, Counterparty: counterparty, CounterpartyVersions: CompatibleVersions(), ProofHeight: 1}, false},
		{"try with zero height", &MsgConnectionOpenTry{ClientID: testClientID, Counterparty: counterparty, CounterpartyVersions: CompatibleVersions(), ProofInit: []byte{1}}, false},
		{"try with invalid previous connection", &MsgConnectionOpenTry{PreviousConnectionID: "conn", ClientID: testClientID, Counterparty: counterparty, CounterpartyVersions: CompatibleVersions(), ProofHeight: 1, ProofInit: []byte{1}}, false},
		{"valid ack", &MsgConnectionOpenAck{ConnectionID: "connection-0", CounterpartyConnectionID: "connection-1", Version: CompatibleVersions()[0], ProofHeight: 1, ProofTry: []byte{1}}, true},
		{"ack with invalid counterparty connection", &MsgConnectionOpenAck{ConnectionID: "connection-0", Version: CompatibleVersions()[0], ProofHeight: 1, ProofTry: []byte{1}}, false},
		{"valid confirm", &MsgConnectionOpenConfirm{ConnectionID: "connection-0", ProofHeight: 1, ProofAck: []byte{1}}, true},
		{"confirm without proof", &MsgConnectionOpenConfirm{ConnectionID: "connection-0", ProofHeight: 1}, false},
		{"client create", &MsgClientCreate{}, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.ValidateBasic()
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestEnvelopeEncodingIsStable(t *testing.T) {
	env := Envelope{MsgType: MsgTypeChannelOpenInit, Content: []byte{0xde, 0xad}}
	a := MustEncode(env)
	b := MustEncode(env)
	require.True(t, bytes.Equal(a, b))
}
