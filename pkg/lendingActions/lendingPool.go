package lendingActions

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// lendingPoolABIJSON covers the pool entrypoints used by the lending actions.
// Every entrypoint takes the market identifier and an amount in atomic units.
const lendingPoolABIJSON = `[
	{
		"name": "supply",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "marketId", "type": "bytes32"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"name": "withdraw",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "marketId", "type": "bytes32"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"name": "borrow",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "marketId", "type": "bytes32"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"name": "repay",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "marketId", "type": "bytes32"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	}
]`

// LendingPoolABI is the parsed pool interface shared by every lending action.
var LendingPoolABI = mustParseABI(lendingPoolABIJSON)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}

// MarketParams describes one lending market as resolved from its identifier.
type MarketParams struct {
	// ID is the market's bytes32 identifier on the pool contract.
	ID common.Hash
	// Pool is the pool contract all four entrypoints live on.
	Pool common.Address
	// LoanToken is the ERC-20 asset supplied, withdrawn, borrowed, and repaid.
	LoanToken common.Address
}
