// Polymarket allowance setup tool.
//
// One-shot: grants max-uint256 collateral approvals to the Polymarket
// trading contracts so the configured account can place orders, sell
// positions and redeem outcomes. Safe to re-run — pairs that already carry
// an effectively unlimited allowance are skipped.
package main

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/gipsh/polymarket-approve-go/internal/approver"
	"github.com/gipsh/polymarket-approve-go/internal/config"
	"github.com/gipsh/polymarket-approve-go/internal/erc20"
	"github.com/gipsh/polymarket-approve-go/internal/logging"
	"github.com/gipsh/polymarket-approve-go/internal/wallet"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	// Hard precondition: bail out before anything touches the network.
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	key, err := wallet.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid PRIVATE_KEY")
	}
	owner := common.HexToAddress(cfg.FunderAddress)

	log.Info().
		Str("account", owner.Hex()).
		Str("rpc", cfg.PolygonRPC).
		Bool("dry_run", cfg.DryRun).
		Msg("starting Polymarket allowance setup")

	cli, err := ethclient.Dial(cfg.PolygonRPC)
	if err != nil {
		log.Fatal().Err(err).Str("rpc", cfg.PolygonRPC).Msg("failed to connect to Polygon RPC")
	}
	defer cli.Close()

	tokenCli, err := erc20.NewClient(cli, key, wallet.AddressFromKey(key), big.NewInt(config.ChainID))
	if err != nil {
		log.Fatal().Err(err).Msg("init token client")
	}

	ctx := context.Background()
	runner := approver.NewRunner(tokenCli, owner, log, cfg.DryRun)

	runner.ShowBalances(ctx, []approver.Token{approver.USDCBridged, approver.USDCNative})
	sum := runner.Run(ctx, approver.Tasks())
	runner.Report(sum)

	// Per-task failures are reported above, not via the exit code: automation
	// keyed on exit status only sees config/startup failures.
}
