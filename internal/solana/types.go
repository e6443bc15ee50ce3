package solana

import "time"

// Well-known addresses.
const (
	// WSOLMint is the wrapped SOL mint, the quote side of every pool we trade.
	WSOLMint = "So11111111111111111111111111111111111111112"

	// RaydiumAMMV4Program owns Raydium AMM v4 pool accounts.
	RaydiumAMMV4Program = "675kPX9MHTqS2qa5khwkQpFnFv9nvzqZoXwCoffre6cK"
)

// SlotDuration is the target slot time.
const SlotDuration = 400 * time.Millisecond
