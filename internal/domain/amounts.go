package domain

import "github.com/shopspring/decimal"

// LamportsPerSOL is the native unit scale.
const LamportsPerSOL = 1_000_000_000

var decLamportsPerSOL = decimal.NewFromInt(LamportsPerSOL)

// SOLToLamports converts SOL to whole lamports, rounding down.
func SOLToLamports(sol decimal.Decimal) decimal.Decimal {
	return sol.Mul(decLamportsPerSOL).Floor()
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports decimal.Decimal) decimal.Decimal {
	return lamports.Div(decLamportsPerSOL)
}
