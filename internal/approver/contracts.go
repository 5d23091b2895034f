package approver

import "github.com/ethereum/go-ethereum/common"

// Token is a collateral token whose allowances get set.
type Token struct {
	Address common.Address
	Name    string
}

// Spender is a Polymarket contract that needs spending rights. Spenders only
// ever appear as the approval target; none of their methods are called.
type Spender struct {
	Address common.Address
	Name    string
}

// Task is one (token, spender) approval to check and, if needed, submit.
type Task struct {
	Token   Token
	Spender Spender
}

// ── Polygon mainnet contracts ────────────────────────────────────────────

var (
	// Collateral tokens, 6 decimals each.
	USDCBridged = Token{common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"), "USDC.e"}
	USDCNative  = Token{common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"), "USDC"}

	CTFExchange       = Spender{common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"), "CTF Exchange"}
	NegRiskExchange   = Spender{common.HexToAddress("0xC5d563A36AE78145C45a50134d48A1215220f80a"), "Neg Risk Exchange"}
	NegRiskAdapter    = Spender{common.HexToAddress("0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"), "Neg Risk Adapter"}
	ConditionalTokens = Spender{common.HexToAddress("0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"), "Conditional Tokens"}
)

// Tasks returns the full work set in submission order: every collateral
// token against every venue contract. The order also fixes the nonce
// sequence, so callers must not reorder or parallelize it.
func Tasks() []Task {
	tokens := []Token{USDCBridged, USDCNative}
	spenders := []Spender{CTFExchange, NegRiskExchange, NegRiskAdapter, ConditionalTokens}

	tasks := make([]Task, 0, len(tokens)*len(spenders))
	for _, tok := range tokens {
		for _, sp := range spenders {
			tasks = append(tasks, Task{Token: tok, Spender: sp})
		}
	}
	return tasks
}
