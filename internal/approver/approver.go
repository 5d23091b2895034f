// Package approver drives the one-shot allowance setup flow: walk the static
// (token, spender) table, approve where the current allowance is too low,
// and tally the outcomes.
package approver

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gipsh/polymarket-approve-go/internal/erc20"
)

// An allowance above 1M USDC (6 decimals) is treated as "unlimited already
// granted" and skipped rather than re-approved.
var approvedThreshold = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000))

// Warn when the gas balance drops below 0.1 POL.
var lowGasThreshold = decimal.NewFromFloat(0.1)

// TokenClient is the chain surface the runner needs. *erc20.Client
// satisfies it.
type TokenClient interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	Decimals(ctx context.Context, token common.Address) (uint8, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// Summary is the final success/failure tally of a run.
type Summary struct {
	Succeeded int
	Failed    int
}

// Runner executes the approval table sequentially. Transactions all come
// from the same account, so task order is the nonce order; never run tasks
// concurrently.
type Runner struct {
	client TokenClient
	owner  common.Address
	log    zerolog.Logger
	dryRun bool

	// Pause after each task so the node's nonce bookkeeping settles
	// before the next submission.
	delay time.Duration
}

// NewRunner creates a Runner for the given owner account.
func NewRunner(client TokenClient, owner common.Address, logger zerolog.Logger, dryRun bool) *Runner {
	return &Runner{
		client: client,
		owner:  owner,
		log:    logger,
		dryRun: dryRun,
		delay:  time.Second,
	}
}

// Run walks the tasks in order, one at a time, and returns the tally.
// Per-task failures are logged and counted; they never abort the run.
func (r *Runner) Run(ctx context.Context, tasks []Task) Summary {
	var sum Summary
	for _, task := range tasks {
		if err := r.approve(ctx, task); err != nil {
			r.log.Error().
				Str("token", task.Token.Name).
				Str("spender", task.Spender.Name).
				Err(err).
				Msg("approval failed")
			sum.Failed++
		} else {
			sum.Succeeded++
		}
		time.Sleep(r.delay)
	}
	return sum
}

// approve checks one pair's allowance and submits a max-uint256 approval if
// it is below the threshold.
func (r *Runner) approve(ctx context.Context, task Task) error {
	allowance, err := r.client.Allowance(ctx, task.Token.Address, r.owner, task.Spender.Address)
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}

	if allowance.Cmp(approvedThreshold) > 0 {
		r.log.Info().
			Str("token", task.Token.Name).
			Str("spender", task.Spender.Name).
			Msg("✅ already approved")
		return nil
	}

	if r.dryRun {
		r.log.Info().
			Str("token", task.Token.Name).
			Str("spender", task.Spender.Name).
			Str("allowance", allowance.String()).
			Msg("dry run — would approve max uint256")
		return nil
	}

	r.log.Info().
		Str("token", task.Token.Name).
		Str("spender", task.Spender.Name).
		Msg("approving max uint256...")

	hash, err := r.client.Approve(ctx, task.Token.Address, task.Spender.Address, erc20.MaxUint256)
	if err != nil {
		return err
	}

	r.log.Info().
		Str("token", task.Token.Name).
		Str("spender", task.Spender.Name).
		Str("tx", hash.Hex()).
		Msg("✅ approval confirmed")
	return nil
}

// ── Balance display ──────────────────────────────────────────────────────

// FormatBalance returns the display balance of tok for the owner account,
// scaled by the token's declared decimals. Display-only: any read error is
// coerced to "0" rather than propagated.
func (r *Runner) FormatBalance(ctx context.Context, tok Token) string {
	bal, err := r.client.BalanceOf(ctx, tok.Address, r.owner)
	if err != nil {
		return "0"
	}
	dec, err := r.client.Decimals(ctx, tok.Address)
	if err != nil {
		return "0"
	}
	return decimal.NewFromBigInt(bal, -int32(dec)).String()
}

// ShowBalances prints the collateral balances and warns when the POL
// balance looks too low to pay for gas. Never blocks the approval loop.
func (r *Runner) ShowBalances(ctx context.Context, tokens []Token) {
	for _, tok := range tokens {
		r.log.Info().
			Str("token", tok.Name).
			Str("balance", r.FormatBalance(ctx, tok)).
			Msg("collateral balance")
	}

	wei, err := r.client.NativeBalance(ctx, r.owner)
	if err != nil {
		r.log.Warn().Err(err).Msg("could not read POL balance")
		return
	}
	pol := decimal.NewFromBigInt(wei, -18)
	if pol.LessThan(lowGasThreshold) {
		r.log.Warn().Str("balance", pol.String()).Msg("⚠ low POL balance, approvals may fail on gas")
		return
	}
	r.log.Info().Str("balance", pol.String()).Msg("POL balance")
}

// Report prints the final tally.
func (r *Runner) Report(sum Summary) {
	if sum.Failed == 0 {
		r.log.Info().Int("succeeded", sum.Succeeded).Msg("🎉 all approvals in place")
		return
	}
	r.log.Warn().
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Msg("some approvals failed")
}
