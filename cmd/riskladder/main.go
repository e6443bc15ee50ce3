package main

import "solana-risk-ladder/internal/cli"

func main() {
	cli.Execute()
}
