package clarity_test

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/bituzin/stacks-boost-app/internal/clarity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contractAddress = "SP1K2XGT5RNGT42N49BH936VDF8NXWNZJY15BPV4F"
	contractHash    = "662ec345c561a20aa44ae2919b6d7a2bde57f2f0"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name        string
		addr        string
		wantVersion byte
		wantHash    string
		wantErr     bool
	}{
		{
			name:        "reference vector",
			addr:        "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
			wantVersion: clarity.VersionMainnetSingleSig,
			wantHash:    "a46ff88886c2ef9762d970b4d2c63678835bd39d",
		},
		{
			name:        "lending contract deployer",
			addr:        contractAddress,
			wantVersion: clarity.VersionMainnetSingleSig,
			wantHash:    contractHash,
		},
		{
			name:        "testnet",
			addr:        "ST1K2XGT5RNGT42N49BH936VDF8NXWNZJY0N432CM",
			wantVersion: clarity.VersionTestnetSingleSig,
			wantHash:    contractHash,
		},
		{
			name:        "burn address with leading zero bytes",
			addr:        "SP000000000000000000002Q6VF78",
			wantVersion: clarity.VersionMainnetSingleSig,
			wantHash:    "0000000000000000000000000000000000000000",
		},
		{name: "bad checksum", addr: "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ8", wantErr: true},
		{name: "not stacks", addr: "0x1234567890abcdef", wantErr: true},
		{name: "too short", addr: "SP1", wantErr: true},
		{name: "bad character", addr: "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, hash, err := clarity.ParseAddress(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantHash, hex.EncodeToString(hash[:]))
			assert.Equal(t, tt.addr, clarity.FormatAddress(version, hash))
		})
	}
}

func TestEncodeHex(t *testing.T) {
	principal, err := clarity.PrincipalFromString(contractAddress)
	require.NoError(t, err)

	tests := []struct {
		name  string
		value clarity.Value
		want  string
	}{
		{name: "uint", value: clarity.NewUInt(5), want: "0x0100000000000000000000000000000005"},
		{name: "negative int", value: clarity.NewInt(-1), want: "0x00ffffffffffffffffffffffffffffffff"},
		{name: "map key tuple", value: clarity.Tuple{"user": principal}, want: "0x0c0000000104757365720516" + contractHash},
		{
			name:  "some amount",
			value: clarity.Some{Value: clarity.Tuple{"amount": clarity.NewUInt(500000)}},
			want:  "0x0a0c0000000106616d6f756e74010000000000000000000000000007a120",
		},
		{name: "none", value: clarity.None{}, want: "0x09"},
		{name: "true", value: clarity.Bool(true), want: "0x03"},
		{name: "ok u1", value: clarity.ResponseOk{Value: clarity.NewUInt(1)}, want: "0x070100000000000000000000000000000001"},
		{name: "ascii", value: clarity.StringASCII("hi"), want: "0x0d000000026869"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := clarity.EncodeHex(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			decoded, err := clarity.DecodeHex(got)
			require.NoError(t, err)
			assert.Equal(t, clarity.Repr(tt.value), clarity.Repr(decoded))
		})
	}
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 128)
	_, err := clarity.EncodeHex(clarity.UInt{V: tooBig})
	assert.Error(t, err)

	_, err = clarity.EncodeHex(clarity.UInt{V: big.NewInt(-1)})
	assert.Error(t, err)

	_, err = clarity.EncodeHex(clarity.StringASCII("caf\xc3\xa9"))
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	for _, in := range []string{"", "0x", "0xzz", "0x01ff", "0x0a", "0x0c00000005", "0x09ff", "0xff"} {
		t.Run(in, func(t *testing.T) {
			_, err := clarity.DecodeHex(in)
			assert.Error(t, err)
		})
	}
}

func TestContractPrincipal(t *testing.T) {
	v, err := clarity.PrincipalFromString(contractAddress + ".stackslend-v4")
	require.NoError(t, err)
	cp, ok := v.(clarity.ContractPrincipal)
	require.True(t, ok)
	assert.Equal(t, "stackslend-v4", cp.Name)
	assert.Equal(t, contractAddress+".stackslend-v4", cp.String())

	encoded, err := clarity.EncodeHex(v)
	require.NoError(t, err)
	decoded, err := clarity.DecodeHex(encoded)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	_, err = clarity.PrincipalFromString(contractAddress + ".9bad")
	assert.Error(t, err)
}

func TestUnwrapAndRepr(t *testing.T) {
	inner := clarity.Tuple{"amount": clarity.NewUInt(7)}
	assert.Equal(t, inner, clarity.Unwrap(clarity.Some{Value: inner}))
	assert.Nil(t, clarity.Unwrap(clarity.None{}))
	assert.Equal(t, clarity.NewUInt(1), clarity.Unwrap(clarity.ResponseErr{Value: clarity.NewUInt(1)}))
	assert.Equal(t, "(some (tuple (amount u7)))", clarity.Repr(clarity.Some{Value: inner}))
	assert.Equal(t, "(err u102)", clarity.Repr(clarity.ResponseErr{Value: clarity.NewUInt(102)}))
}
