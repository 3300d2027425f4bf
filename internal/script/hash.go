package script

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode/utf16"
)

// HashParameterBlock computes the hex SHA-256 digest of a serialized
// parameter block. The bytes are taken from the text's UTF-16 little-endian
// form: the remote agent verifies the digest against its own 16-bit string
// representation, so hashing the UTF-8 bytes produces a value it rejects.
func HashParameterBlock(blockXML string) string {
	sum := sha256.Sum256(utf16leBytes(blockXML))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func utf16leBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return buf
}
