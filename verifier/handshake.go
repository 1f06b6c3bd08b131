package verifier

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	conntypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	"github.com/ibc-ckb/connverifier/verifier/client"
	"github.com/ibc-ckb/connverifier/verifier/common"
	"github.com/ibc-ckb/connverifier/verifier/ibc"
)

// clientIdentifier is how connection ends name the light client a connection cell is bound to.
func clientIdentifier(id [client.IDLength]byte) string {
	return hex.EncodeToString(id[:])
}

// handleConnectionOpenInit accepts a new connection end in Init proposed by this chain.
func handleConnectionOpenInit(c client.Client, prev, next connectionCell, msg *ibc.MsgConnectionOpenInit) error {
	if err := checkCellBinding(c, prev, next); err != nil {
		return err
	}
	if err := msg.ValidateBasic(); err != nil {
		return err
	}
	clientID := clientIdentifier(c.ID())
	if msg.ClientID != clientID {
		return fmt.Errorf("message client %s is not the bound client %s", msg.ClientID, clientID)
	}

	versions := ibc.CompatibleVersions()
	if msg.Version != nil {
		if err := checkProposedVersion(*msg.Version, versions); err != nil {
			return err
		}
		versions = []ibc.Version{*msg.Version}
	}

	end := ibc.ConnectionEnd{
		State:        ibc.StateInit,
		ClientID:     clientID,
		Counterparty: msg.Counterparty,
		Versions:     versions,
		DelayPeriod:  msg.DelayPeriod,
	}
	return checkAppended(prev.Connections, next.Connections, end)
}

// handleConnectionOpenTry accepts a connection end in TryOpen answering a
// counterparty Init. The end is either new or replaces our own Init end when
// both chains initiated the handshake.
func handleConnectionOpenTry(c client.Client, prev, next connectionCell, msg *ibc.MsgConnectionOpenTry) error {
	if err := checkCellBinding(c, prev, next); err != nil {
		return err
	}
	if err := msg.ValidateBasic(); err != nil {
		return err
	}
	clientID := clientIdentifier(c.ID())
	if msg.ClientID != clientID {
		return fmt.Errorf("message client %s is not the bound client %s", msg.ClientID, clientID)
	}

	version, err := conntypes.PickVersion(conntypes.GetCompatibleVersions(), ibc.ToExportedVersions(msg.CounterpartyVersions))
	if err != nil {
		return err
	}

	expected := ibc.ConnectionEnd{
		State:    ibc.StateInit,
		ClientID: msg.Counterparty.ClientID,
		Counterparty: ibc.Counterparty{
			ClientID:         clientID,
			CommitmentPrefix: ibc.CommitmentPrefix,
		},
		Versions:    msg.CounterpartyVersions,
		DelayPeriod: msg.DelayPeriod,
	}
	if err := verifyConnectionState(
		c, msg.ProofHeight, msg.ProofInit,
		msg.Counterparty.CommitmentPrefix, msg.Counterparty.ConnectionID, expected,
	); err != nil {
		return err
	}

	end := ibc.ConnectionEnd{
		State:        ibc.StateTryOpen,
		ClientID:     clientID,
		Counterparty: msg.Counterparty,
		Versions:     []ibc.Version{ibc.VersionFromExported(version)},
		DelayPeriod:  msg.DelayPeriod,
	}
	if msg.PreviousConnectionID == "" {
		return checkAppended(prev.Connections, next.Connections, end)
	}

	idx, previous, err := prev.Connections.Get(msg.PreviousConnectionID)
	if err != nil {
		return err
	}
	if previous.State != ibc.StateInit {
		return fmt.Errorf("connection %s is in state %s, expected %s", msg.PreviousConnectionID, previous.State, ibc.StateInit)
	}
	if previous.ClientID != clientID ||
		previous.Counterparty.ClientID != msg.Counterparty.ClientID ||
		!bytes.Equal(previous.Counterparty.CommitmentPrefix, msg.Counterparty.CommitmentPrefix) ||
		previous.DelayPeriod != msg.DelayPeriod {
		return fmt.Errorf("connection %s does not match the counterparty connection", msg.PreviousConnectionID)
	}
	return checkUpdated(prev.Connections, next.Connections, idx, end)
}

// handleConnectionOpenAck opens a connection end in Init or TryOpen once the
// counterparty holds it in TryOpen.
func handleConnectionOpenAck(c client.Client, prev, next connectionCell, msg *ibc.MsgConnectionOpenAck) error {
	if err := checkCellBinding(c, prev, next); err != nil {
		return err
	}
	if err := msg.ValidateBasic(); err != nil {
		return err
	}
	idx, end, err := prev.Connections.Get(msg.ConnectionID)
	if err != nil {
		return err
	}
	if err := checkEndBinding(c, end); err != nil {
		return err
	}

	switch end.State {
	case ibc.StateInit:
		if err := checkProposedVersion(msg.Version, end.Versions); err != nil {
			return err
		}
	case ibc.StateTryOpen:
		if len(end.Versions) != 1 || !end.Versions[0].Equal(msg.Version) {
			return fmt.Errorf("version %s is not the version selected in %s", msg.Version, ibc.StateTryOpen)
		}
		if end.Counterparty.ConnectionID != msg.CounterpartyConnectionID {
			return fmt.Errorf("counterparty connection %s, expected %s", msg.CounterpartyConnectionID, end.Counterparty.ConnectionID)
		}
	default:
		return fmt.Errorf("connection %s is in state %s, expected %s or %s", msg.ConnectionID, end.State, ibc.StateInit, ibc.StateTryOpen)
	}

	expected := ibc.ConnectionEnd{
		State:    ibc.StateTryOpen,
		ClientID: end.Counterparty.ClientID,
		Counterparty: ibc.Counterparty{
			ClientID:         end.ClientID,
			ConnectionID:     msg.ConnectionID,
			CommitmentPrefix: ibc.CommitmentPrefix,
		},
		Versions:    []ibc.Version{msg.Version},
		DelayPeriod: end.DelayPeriod,
	}
	if err := verifyConnectionState(
		c, msg.ProofHeight, msg.ProofTry,
		end.Counterparty.CommitmentPrefix, msg.CounterpartyConnectionID, expected,
	); err != nil {
		return err
	}

	end.State = ibc.StateOpen
	end.Versions = []ibc.Version{msg.Version}
	end.Counterparty.ConnectionID = msg.CounterpartyConnectionID
	return checkUpdated(prev.Connections, next.Connections, idx, end)
}

// handleConnectionOpenConfirm opens a connection end in TryOpen once the
// counterparty has opened its end.
func handleConnectionOpenConfirm(c client.Client, prev, next connectionCell, msg *ibc.MsgConnectionOpenConfirm) error {
	if err := checkCellBinding(c, prev, next); err != nil {
		return err
	}
	if err := msg.ValidateBasic(); err != nil {
		return err
	}
	idx, end, err := prev.Connections.Get(msg.ConnectionID)
	if err != nil {
		return err
	}
	if err := checkEndBinding(c, end); err != nil {
		return err
	}
	if end.State != ibc.StateTryOpen {
		return fmt.Errorf("connection %s is in state %s, expected %s", msg.ConnectionID, end.State, ibc.StateTryOpen)
	}

	expected := ibc.ConnectionEnd{
		State:    ibc.StateOpen,
		ClientID: end.Counterparty.ClientID,
		Counterparty: ibc.Counterparty{
			ClientID:         end.ClientID,
			ConnectionID:     msg.ConnectionID,
			CommitmentPrefix: ibc.CommitmentPrefix,
		},
		Versions:    end.Versions,
		DelayPeriod: end.DelayPeriod,
	}
	if err := verifyConnectionState(
		c, msg.ProofHeight, msg.ProofAck,
		end.Counterparty.CommitmentPrefix, end.Counterparty.ConnectionID, expected,
	); err != nil {
		return err
	}

	end.State = ibc.StateOpen
	return checkUpdated(prev.Connections, next.Connections, idx, end)
}

// checkCellBinding requires both connection cells to carry the same args and
// to be bound to the loaded client.
func checkCellBinding(c client.Client, prev, next connectionCell) error {
	if prev.Args != next.Args {
		return errors.New("connection cell args changed")
	}
	if next.Args.ClientID != c.ID() {
		return fmt.Errorf("connection cell is bound to client %x, loaded client %x", next.Args.ClientID, c.ID())
	}
	return nil
}

func checkEndBinding(c client.Client, end ibc.ConnectionEnd) error {
	if clientID := clientIdentifier(c.ID()); end.ClientID != clientID {
		return fmt.Errorf("connection end is bound to client %s, loaded client %s", end.ClientID, clientID)
	}
	return nil
}

// checkProposedVersion requires proposed to be one of supported, with a subset of its features.
func checkProposedVersion(proposed ibc.Version, supported []ibc.Version) error {
	proposedVersion := proposed.ToExported()
	version, found := conntypes.FindSupportedVersion(proposedVersion, ibc.ToExportedVersions(supported))
	if !found {
		return fmt.Errorf("version %s is not supported", proposed)
	}
	return version.VerifyProposedVersion(proposedVersion)
}

// verifyConnectionState asks the light client whether the counterparty
// committed expected under connectionID.
func verifyConnectionState(
	c client.Client,
	height uint64,
	proof []byte,
	prefix []byte,
	connectionID string,
	expected ibc.ConnectionEnd,
) error {
	value, err := ibc.Encode(expected)
	if err != nil {
		return err
	}
	key := common.GetConnectionCommitmentKey(prefix, connectionID)
	if err := c.VerifyMembership(height, proof, key, value); err != nil {
		return fmt.Errorf("failed to verify counterparty connection %s: %w", connectionID, err)
	}
	return nil
}

// checkConnectionCounter requires the connection counter to match the number
// of stored connections, since identifiers are derived from positions.
func checkConnectionCounter(conns ibc.IbcConnections) error {
	if conns.NextConnectionNumber != uint64(len(conns.Connections)) {
		return fmt.Errorf("next connection number %d, but %d connections stored", conns.NextConnectionNumber, len(conns.Connections))
	}
	return nil
}

// checkAppended requires next to be prev with end appended as a new connection.
func checkAppended(prev, next ibc.IbcConnections, end ibc.ConnectionEnd) error {
	if err := checkConnectionCounter(prev); err != nil {
		return err
	}
	if next.NextConnectionNumber != prev.NextConnectionNumber+1 {
		return fmt.Errorf("next connection number %d, expected %d", next.NextConnectionNumber, prev.NextConnectionNumber+1)
	}
	if next.NextChannelNumber != prev.NextChannelNumber {
		return errors.New("next channel number changed")
	}
	if len(next.Connections) != len(prev.Connections)+1 {
		return fmt.Errorf("%d connections, expected %d", len(next.Connections), len(prev.Connections)+1)
	}
	for i, conn := range prev.Connections {
		if !next.Connections[i].Equal(conn) {
			return fmt.Errorf("connection %s changed", ibc.ConnectionID(i))
		}
	}
	idx := len(prev.Connections)
	if !next.Connections[idx].Equal(end) {
		return fmt.Errorf("connection %s does not match the message", ibc.ConnectionID(idx))
	}
	return nil
}

// checkUpdated requires next to be prev with the connection at idx replaced by end.
func checkUpdated(prev, next ibc.IbcConnections, idx int, end ibc.ConnectionEnd) error {
	if err := checkConnectionCounter(prev); err != nil {
		return err
	}
	if next.NextConnectionNumber != prev.NextConnectionNumber || next.NextChannelNumber != prev.NextChannelNumber {
		return errors.New("connection counters changed")
	}
	if len(next.Connections) != len(prev.Connections) {
		return fmt.Errorf("%d connections, expected %d", len(next.Connections), len(prev.Connections))
	}
	for i, conn := range prev.Connections {
		want := conn
		if i == idx {
			want = end
		}
		if !next.Connections[i].Equal(want) {
			if i == idx {
				return fmt.Errorf("connection %s does not match the message", ibc.ConnectionID(i))
			}
			return fmt.Errorf("connection %s changed", ibc.ConnectionID(i))
		}
	}
	return nil
}
