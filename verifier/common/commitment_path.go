package common

import (
	host "github.com/cosmos/ibc-go/v3/modules/core/24-host"
)

// GetConnectionPath returns the store path of a connection end.
func GetConnectionPath(connectionID string) []byte {
	return []byte(host.ConnectionPath(connectionID))
}

// GetConnectionCommitmentKey is the key a counterparty proof must attest to,
// the counterparty's commitment prefix followed by the connection path.
func GetConnectionCommitmentKey(prefix []byte, connectionID string) []byte {
	path := GetConnectionPath(connectionID)
	key := make([]byte, 0, len(prefix)+len(path))
	key = append(key, prefix...)
	return append(key, path...)
}
