package clarity

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"math/big"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const maxDepth = 64

var (
	maxUInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	twoTo128   = new(big.Int).Lsh(big.NewInt(1), 128)
)

// EncodeHex serializes v and returns it 0x-prefixed, the form node RPC
// endpoints and wallets expect for function arguments and map keys.
func EncodeHex(v Value) (string, error) {
	raw, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// DecodeHex parses a 0x-prefixed (or bare) hex serialization
func DecodeHex(s string) (Value, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return nil, errors.Wrap(err, "clarity: invalid hex")
	}
	return Deserialize(raw)
}

// Serialize encodes v in the consensus wire format
func Serialize(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(buf *bytes.Buffer, v Value) error {
	if v == nil {
		return errors.New("clarity: nil value")
	}
	buf.WriteByte(byte(v.Type()))

	switch t := v.(type) {
	case Int:
		if t.V == nil || t.V.Cmp(minInt128) < 0 || t.V.Cmp(maxInt128) > 0 {
			return errors.Errorf("clarity: int out of range: %v", t.V)
		}
		n := new(big.Int).Set(t.V)
		if n.Sign() < 0 {
			n.Add(n, twoTo128)
		}
		buf.Write(n.FillBytes(make([]byte, 16)))
	case UInt:
		if t.V == nil || t.V.Sign() < 0 || t.V.Cmp(maxUInt128) > 0 {
			return errors.Errorf("clarity: uint out of range: %v", t.V)
		}
		buf.Write(t.V.FillBytes(make([]byte, 16)))
	case Buffer:
		writeLen(buf, len(t))
		buf.Write(t)
	case Bool, None:
	case StandardPrincipal:
		buf.WriteByte(t.Version)
		buf.Write(t.Hash[:])
	case ContractPrincipal:
		if err := validContractName(t.Name); err != nil {
			return err
		}
		buf.WriteByte(t.Issuer.Version)
		buf.Write(t.Issuer.Hash[:])
		buf.WriteByte(byte(len(t.Name)))
		buf.WriteString(t.Name)
	case ResponseOk:
		return write(buf, t.Value)
	case ResponseErr:
		return write(buf, t.Value)
	case Some:
		return write(buf, t.Value)
	case List:
		writeLen(buf, len(t))
		for _, item := range t {
			if err := write(buf, item); err != nil {
				return err
			}
		}
	case Tuple:
		writeLen(buf, len(t))
		for _, key := range sortedKeys(t) {
			if len(key) == 0 || len(key) > 128 {
				return errors.Errorf("clarity: invalid tuple key %q", key)
			}
			buf.WriteByte(byte(len(key)))
			buf.WriteString(key)
			if err := write(buf, t[key]); err != nil {
				return errors.Wrapf(err, "tuple field %s", key)
			}
		}
	case StringASCII:
		for i := 0; i < len(t); i++ {
			if t[i] > 0x7e || (t[i] < 0x20 && t[i] != '\n' && t[i] != '\t' && t[i] != '\r') {
				return errors.Errorf("clarity: non-ascii byte in string-ascii at %d", i)
			}
		}
		writeLen(buf, len(t))
		buf.WriteString(string(t))
	case StringUTF8:
		if !utf8.ValidString(string(t)) {
			return errors.New("clarity: invalid utf8 string")
		}
		writeLen(buf, len(t))
		buf.WriteString(string(t))
	default:
		return errors.Errorf("clarity: unsupported value %T", v)
	}
	return nil
}

func writeLen(buf *bytes.Buffer, n int) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	buf.Write(b[:])
}

// Deserialize decodes one value and rejects trailing bytes
func Deserialize(raw []byte) (Value, error) {
	r := bytes.NewReader(raw)
	v, err := read(r, 0)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("clarity: %d trailing bytes", r.Len())
	}
	return v, nil
}

func read(r *bytes.Reader, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, errors.New("clarity: value nested too deeply")
	}
	prefix, err := r.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "clarity: missing type prefix")
	}

	switch Type(prefix) {
	case TypeInt:
		b, err := readN(r, 16)
		if err != nil {
			return nil, err
		}
		n := new(big.Int).SetBytes(b)
		if b[0]&0x80 != 0 {
			n.Sub(n, twoTo128)
		}
		return Int{V: n}, nil
	case TypeUInt:
		b, err := readN(r, 16)
		if err != nil {
			return nil, err
		}
		return UInt{V: new(big.Int).SetBytes(b)}, nil
	case TypeBuffer:
		b, err := readPrefixed(r)
		if err != nil {
			return nil, err
		}
		return Buffer(b), nil
	case TypeTrue:
		return Bool(true), nil
	case TypeFalse:
		return Bool(false), nil
	case TypeStandardPrincipal:
		return readStandardPrincipal(r)
	case TypeContractPrincipal:
		issuer, err := readStandardPrincipal(r)
		if err != nil {
			return nil, err
		}
		n, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "clarity: contract name length")
		}
		name, err := readN(r, int(n))
		if err != nil {
			return nil, err
		}
		return ContractPrincipal{Issuer: issuer, Name: string(name)}, nil
	case TypeResponseOk:
		inner, err := read(r, depth+1)
		if err != nil {
			return nil, err
		}
		return ResponseOk{Value: inner}, nil
	case TypeResponseErr:
		inner, err := read(r, depth+1)
		if err != nil {
			return nil, err
		}
		return ResponseErr{Value: inner}, nil
	case TypeOptionalNone:
		return None{}, nil
	case TypeOptionalSome:
		inner, err := read(r, depth+1)
		if err != nil {
			return nil, err
		}
		return Some{Value: inner}, nil
	case TypeList:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		if int64(n) > int64(r.Len()) {
			return nil, errors.Errorf("clarity: list length %d exceeds input", n)
		}
		list := make(List, 0, n)
		for i := uint32(0); i < n; i++ {
			item, err := read(r, depth+1)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case TypeTuple:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		if int64(n) > int64(r.Len()) {
			return nil, errors.Errorf("clarity: tuple size %d exceeds input", n)
		}
		tuple := make(Tuple, n)
		for i := uint32(0); i < n; i++ {
			kl, err := r.ReadByte()
			if err != nil {
				return nil, errors.Wrap(err, "clarity: tuple key length")
			}
			key, err := readN(r, int(kl))
			if err != nil {
				return nil, err
			}
			val, err := read(r, depth+1)
			if err != nil {
				return nil, errors.Wrapf(err, "tuple field %s", key)
			}
			tuple[string(key)] = val
		}
		return tuple, nil
	case TypeStringASCII:
		b, err := readPrefixed(r)
		if err != nil {
			return nil, err
		}
		return StringASCII(b), nil
	case TypeStringUTF8:
		b, err := readPrefixed(r)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, errors.New("clarity: invalid utf8 string")
		}
		return StringUTF8(b), nil
	default:
		return nil, errors.Errorf("clarity: unknown type prefix 0x%02x", prefix)
	}
}

func readStandardPrincipal(r *bytes.Reader) (StandardPrincipal, error) {
	var p StandardPrincipal
	version, err := r.ReadByte()
	if err != nil {
		return p, errors.Wrap(err, "clarity: principal version")
	}
	hash, err := readN(r, 20)
	if err != nil {
		return p, err
	}
	p.Version = version
	copy(p.Hash[:], hash)
	return p, nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	b, err := readN(r, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func readPrefixed(r *bytes.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	return readN(r, int(n))
}

func readN(r *bytes.Reader, n int) ([]byte, error) {
	if n > r.Len() {
		return nil, errors.Errorf("clarity: need %d bytes, have %d", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrap(err, "clarity: short read")
	}
	return b, nil
}

func sortedKeys(t Tuple) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}

func validContractName(name string) error {
	if len(name) == 0 || len(name) > 128 {
		return errors.Errorf("clarity: invalid contract name length %d", len(name))
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		ok := c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !ok || (i == 0 && !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'))) {
			return errors.Errorf("clarity: invalid contract name %q", name)
		}
	}
	return nil
}
