package common

import (
	"encoding/hex"
	"strings"
)

// HexStrToBytes decodes a hex string with an optional 0x prefix.
func HexStrToBytes(hexString string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(hexString, "0x"))
}
