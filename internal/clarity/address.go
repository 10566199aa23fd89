package clarity

import (
	"bytes"
	"crypto/sha256"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// bigBase32 is the digit set math/big uses for base 32
const bigBase32 = "0123456789abcdefghijklmnopqrstuv"

// Address version bytes
const (
	VersionMainnetSingleSig byte = 22 // SP
	VersionMainnetMultiSig  byte = 20 // SM
	VersionTestnetSingleSig byte = 26 // ST
	VersionTestnetMultiSig  byte = 21 // SN
)

// IsMainnetVersion reports whether the version byte belongs to mainnet
func IsMainnetVersion(v byte) bool {
	return v == VersionMainnetSingleSig || v == VersionMainnetMultiSig
}

// IsTestnetVersion reports whether the version byte belongs to testnet
func IsTestnetVersion(v byte) bool {
	return v == VersionTestnetSingleSig || v == VersionTestnetMultiSig
}

// FormatAddress renders a c32check address, e.g. SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7
func FormatAddress(version byte, hash [20]byte) string {
	payload := append(hash[:], checksum(version, hash[:])...)
	return "S" + string(c32Alphabet[version&0x1f]) + c32Encode(payload)
}

// ParseAddress decodes a c32check address and verifies its checksum
func ParseAddress(addr string) (byte, [20]byte, error) {
	var hash [20]byte
	if len(addr) < 5 || addr[0] != 'S' {
		return 0, hash, errors.Errorf("clarity: invalid address %q", addr)
	}
	normalized := c32Normalize(addr[1:])
	version := strings.IndexByte(c32Alphabet, normalized[0])
	if version < 0 {
		return 0, hash, errors.Errorf("clarity: invalid address version in %q", addr)
	}

	payload, err := c32Decode(normalized[1:])
	if err != nil {
		return 0, hash, errors.Wrapf(err, "clarity: invalid address %q", addr)
	}
	if len(payload) != 24 {
		return 0, hash, errors.Errorf("clarity: invalid address length in %q", addr)
	}
	if !bytes.Equal(checksum(byte(version), payload[:20]), payload[20:]) {
		return 0, hash, errors.Errorf("clarity: address checksum mismatch for %q", addr)
	}
	copy(hash[:], payload[:20])
	return byte(version), hash, nil
}

func checksum(version byte, data []byte) []byte {
	first := sha256.Sum256(append([]byte{version}, data...))
	second := sha256.Sum256(first[:])
	return second[:4]
}

// c32Encode is a base-32 rendering of the big-endian number with one '0'
// per leading zero byte.
func c32Encode(data []byte) string {
	zeros := 0
	for zeros < len(data) && data[zeros] == 0 {
		zeros++
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("0", zeros))
	n := new(big.Int).SetBytes(data)
	if n.Sign() == 0 {
		return b.String()
	}
	for _, d := range n.Text(32) {
		b.WriteByte(c32Alphabet[strings.IndexRune(bigBase32, d)])
	}
	return b.String()
}

func c32Decode(s string) ([]byte, error) {
	zeros := 0
	for zeros < len(s) && s[zeros] == '0' {
		zeros++
	}

	n := new(big.Int)
	for i := zeros; i < len(s); i++ {
		d := strings.IndexByte(c32Alphabet, s[i])
		if d < 0 {
			return nil, errors.Errorf("invalid c32 character %q", s[i])
		}
		n.Lsh(n, 5)
		n.Or(n, big.NewInt(int64(d)))
	}
	return append(make([]byte, zeros), n.Bytes()...), nil
}

func c32Normalize(s string) string {
	s = strings.ToUpper(s)
	return strings.NewReplacer("O", "0", "L", "1", "I", "1").Replace(s)
}
