package solana

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/shopspring/decimal"
)

// RPCClient defines the Solana JSON-RPC calls the engine depends on.
type RPCClient interface {
	// GetSlot returns the current slot at confirmed commitment.
	GetSlot(ctx context.Context) (int64, error)

	// GetAccountInfo returns an account, or nil if it does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetProgramAccounts returns accounts owned by program matching all filters.
	GetProgramAccounts(ctx context.Context, program string, filters []AccountFilter) ([]KeyedAccount, error)

	// GetMultipleAccounts returns accounts in request order; missing ones are nil.
	GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*AccountInfo, error)

	// GetTokenLargestAccounts returns up to 20 largest holders of a mint.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAmount, error)

	// GetTokenSupply returns the total supply of a mint.
	GetTokenSupply(ctx context.Context, mint string) (TokenAmount, error)

	// SendTransaction submits a base64 wire transaction and returns its signature.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       string // base64 encoded
	Executable bool
	RentEpoch  uint64
}

// Bytes decodes the account data.
func (a *AccountInfo) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return b, nil
}

// KeyedAccount pairs an account with its address.
type KeyedAccount struct {
	Pubkey  string
	Account AccountInfo
}

// TokenAmount is an SPL amount in atoms. Address is set for holder rows.
type TokenAmount struct {
	Address  string
	Amount   decimal.Decimal
	Decimals int
}

// AccountFilter is one getProgramAccounts filter: either DataSize or Memcmp.
type AccountFilter struct {
	DataSize uint64
	Memcmp   *Memcmp
}

// Memcmp matches base58 Bytes at Offset of the account data.
type Memcmp struct {
	Offset uint64
	Bytes  string
}

func (f AccountFilter) toParam() map[string]interface{} {
	if f.Memcmp != nil {
		return map[string]interface{}{
			"memcmp": map[string]interface{}{
				"offset": f.Memcmp.Offset,
				"bytes":  f.Memcmp.Bytes,
			},
		}
	}
	return map[string]interface{}{"dataSize": f.DataSize}
}
