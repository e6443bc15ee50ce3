package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// RaydiumPoolSize is the byte size of an AMM v4 pool account.
const RaydiumPoolSize = 752

// AMM v4 pool field offsets.
const (
	offBaseDecimal  = 32
	offQuoteDecimal = 40
	offPoolOpenTime = 224
	offBaseVault    = 336
	offQuoteVault   = 368
	offBaseMint     = 400
	// OffsetQuoteMint is exported for the getProgramAccounts memcmp filter.
	OffsetQuoteMint = 432
	offLPMint       = 464
)

// TokenAccountSize is the byte size of an SPL token account.
const TokenAccountSize = 165

const offTokenAmount = 64

// RaydiumPool is the subset of an AMM v4 pool account used for discovery.
type RaydiumPool struct {
	Address       string
	BaseMint      string
	QuoteMint     string
	BaseVault     string
	QuoteVault    string
	LPMint        string
	BaseDecimals  uint64
	QuoteDecimals uint64
	OpenTime      int64 // unix seconds
}

// DecodeRaydiumPool decodes an AMM v4 pool account.
func DecodeRaydiumPool(address string, data []byte) (*RaydiumPool, error) {
	if len(data) != RaydiumPoolSize {
		return nil, fmt.Errorf("raydium pool %s: expected %d bytes, got %d", address, RaydiumPoolSize, len(data))
	}

	return &RaydiumPool{
		Address:       address,
		BaseMint:      pubkeyAt(data, offBaseMint),
		QuoteMint:     pubkeyAt(data, OffsetQuoteMint),
		BaseVault:     pubkeyAt(data, offBaseVault),
		QuoteVault:    pubkeyAt(data, offQuoteVault),
		LPMint:        pubkeyAt(data, offLPMint),
		BaseDecimals:  binary.LittleEndian.Uint64(data[offBaseDecimal:]),
		QuoteDecimals: binary.LittleEndian.Uint64(data[offQuoteDecimal:]),
		OpenTime:      int64(binary.LittleEndian.Uint64(data[offPoolOpenTime:])),
	}, nil
}

// DecodeTokenAccountAmount reads the amount of an SPL token account in atoms.
func DecodeTokenAccountAmount(data []byte) (uint64, error) {
	if len(data) < offTokenAmount+8 {
		return 0, fmt.Errorf("token account: expected at least %d bytes, got %d", offTokenAmount+8, len(data))
	}
	return binary.LittleEndian.Uint64(data[offTokenAmount:]), nil
}

func pubkeyAt(data []byte, off int) string {
	return base58.Encode(data[off : off+32])
}
