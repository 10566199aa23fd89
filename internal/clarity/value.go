// Package clarity implements the consensus wire format of Clarity values and
// the c32check address encoding used by Stacks principals.
package clarity

import (
	"math/big"
	"strings"
)

// Type is the one-byte type prefix of a serialized Clarity value
type Type byte

const (
	TypeInt               Type = 0x00
	TypeUInt              Type = 0x01
	TypeBuffer            Type = 0x02
	TypeTrue              Type = 0x03
	TypeFalse             Type = 0x04
	TypeStandardPrincipal Type = 0x05
	TypeContractPrincipal Type = 0x06
	TypeResponseOk        Type = 0x07
	TypeResponseErr       Type = 0x08
	TypeOptionalNone      Type = 0x09
	TypeOptionalSome      Type = 0x0a
	TypeList              Type = 0x0b
	TypeTuple             Type = 0x0c
	TypeStringASCII       Type = 0x0d
	TypeStringUTF8        Type = 0x0e
)

// Value is any Clarity value
type Value interface {
	Type() Type
}

// Int is a signed 128-bit integer
type Int struct{ V *big.Int }

// UInt is an unsigned 128-bit integer
type UInt struct{ V *big.Int }

// Buffer is a byte buffer
type Buffer []byte

// Bool is a boolean
type Bool bool

// StandardPrincipal is an account principal
type StandardPrincipal struct {
	Version byte
	Hash    [20]byte
}

// ContractPrincipal is a contract principal, addr.name
type ContractPrincipal struct {
	Issuer StandardPrincipal
	Name   string
}

// ResponseOk is (ok value)
type ResponseOk struct{ Value Value }

// ResponseErr is (err value)
type ResponseErr struct{ Value Value }

// None is the absent optional
type None struct{}

// Some is a present optional
type Some struct{ Value Value }

// List is a homogeneous list
type List []Value

// Tuple is a named-field record
type Tuple map[string]Value

// StringASCII is an ASCII string
type StringASCII string

// StringUTF8 is a UTF-8 string
type StringUTF8 string

func (Int) Type() Type               { return TypeInt }
func (UInt) Type() Type              { return TypeUInt }
func (Buffer) Type() Type            { return TypeBuffer }
func (StandardPrincipal) Type() Type { return TypeStandardPrincipal }
func (ContractPrincipal) Type() Type { return TypeContractPrincipal }
func (ResponseOk) Type() Type        { return TypeResponseOk }
func (ResponseErr) Type() Type       { return TypeResponseErr }
func (None) Type() Type              { return TypeOptionalNone }
func (Some) Type() Type              { return TypeOptionalSome }
func (List) Type() Type              { return TypeList }
func (Tuple) Type() Type             { return TypeTuple }
func (StringASCII) Type() Type       { return TypeStringASCII }
func (StringUTF8) Type() Type        { return TypeStringUTF8 }

func (b Bool) Type() Type {
	if b {
		return TypeTrue
	}
	return TypeFalse
}

// NewUInt returns a uint value
func NewUInt(v uint64) UInt {
	return UInt{V: new(big.Int).SetUint64(v)}
}

// NewInt returns an int value
func NewInt(v int64) Int {
	return Int{V: big.NewInt(v)}
}

// String returns the c32 address of the principal
func (p StandardPrincipal) String() string {
	return FormatAddress(p.Version, p.Hash)
}

// String returns addr.name
func (p ContractPrincipal) String() string {
	return p.Issuer.String() + "." + p.Name
}

// PrincipalFromString parses "SP..." into a StandardPrincipal and
// "SP....contract-name" into a ContractPrincipal.
func PrincipalFromString(s string) (Value, error) {
	addr, name, isContract := strings.Cut(s, ".")
	version, hash, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	std := StandardPrincipal{Version: version, Hash: hash}
	if !isContract {
		return std, nil
	}
	if err := validContractName(name); err != nil {
		return nil, err
	}
	return ContractPrincipal{Issuer: std, Name: name}, nil
}

// Unwrap strips one level of optional or response wrapping.
// None unwraps to nil.
func Unwrap(v Value) Value {
	switch t := v.(type) {
	case Some:
		return t.Value
	case ResponseOk:
		return t.Value
	case ResponseErr:
		return t.Value
	case None:
		return nil
	default:
		return v
	}
}

// Repr renders a value in Clarity source notation, e.g. (some (tuple (amount u5)))
func Repr(v Value) string {
	var b strings.Builder
	writeRepr(&b, v)
	return b.String()
}

func writeRepr(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case Int:
		b.WriteString(t.V.String())
	case UInt:
		b.WriteString("u" + t.V.String())
	case Buffer:
		b.WriteString("0x")
		b.WriteString(hexString(t))
	case Bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case StandardPrincipal:
		b.WriteString("'" + t.String())
	case ContractPrincipal:
		b.WriteString("'" + t.String())
	case ResponseOk:
		b.WriteString("(ok ")
		writeRepr(b, t.Value)
		b.WriteString(")")
	case ResponseErr:
		b.WriteString("(err ")
		writeRepr(b, t.Value)
		b.WriteString(")")
	case None:
		b.WriteString("none")
	case Some:
		b.WriteString("(some ")
		writeRepr(b, t.Value)
		b.WriteString(")")
	case List:
		b.WriteString("(list")
		for _, item := range t {
			b.WriteString(" ")
			writeRepr(b, item)
		}
		b.WriteString(")")
	case Tuple:
		b.WriteString("(tuple")
		for _, key := range sortedKeys(t) {
			b.WriteString(" (" + key + " ")
			writeRepr(b, t[key])
			b.WriteString(")")
		}
		b.WriteString(")")
	case StringASCII:
		b.WriteString(`"` + string(t) + `"`)
	case StringUTF8:
		b.WriteString(`u"` + string(t) + `"`)
	default:
		b.WriteString("<unknown>")
	}
}
