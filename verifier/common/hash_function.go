package common

import (
	"golang.org/x/crypto/sha3"
)

// HashLength is the size of a commitment stored in cell data.
const HashLength = 32

// Keccak256 returns the commitment hash of the concatenated data.
func Keccak256(data ...[]byte) (h [HashLength]byte) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}
