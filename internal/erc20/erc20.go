// Package erc20 is a thin ERC-20 client for allowance reads and approval
// writes against Polygon tokens.
//
// Reads go through eth_call with hand-packed calldata; the approve path
// builds, signs and broadcasts a legacy transaction and blocks until the
// receipt lands.
package erc20

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const tokenABI = `[{
	"name":"approve",
	"type":"function",
	"inputs":[
		{"name":"spender","type":"address"},
		{"name":"amount","type":"uint256"}
	],
	"outputs":[{"name":"","type":"bool"}]
},{
	"name":"allowance",
	"type":"function",
	"inputs":[
		{"name":"owner","type":"address"},
		{"name":"spender","type":"address"}
	],
	"outputs":[{"name":"","type":"uint256"}]
},{
	"name":"balanceOf",
	"type":"function",
	"inputs":[{"name":"account","type":"address"}],
	"outputs":[{"name":"","type":"uint256"}]
},{
	"name":"decimals",
	"type":"function",
	"inputs":[],
	"outputs":[{"name":"","type":"uint8"}]
},{
	"name":"symbol",
	"type":"function",
	"inputs":[],
	"outputs":[{"name":"","type":"string"}]
}]`

const (
	// Flat ceiling for approve calls; a plain ERC-20 approve stays well
	// under this on every token we touch.
	approveGasLimit = 100_000

	// Submitted gas price is floor(suggested * 120 / 100) to keep the tx
	// from sitting underpriced in the pool.
	gasBumpNumerator   = 120
	gasBumpDenominator = 100
)

// MaxUint256 is the "unlimited" approval amount (2^256 - 1).
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Backend is the subset of *ethclient.Client the tool needs. Narrowed for
// testability.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client reads token state and submits approvals signed by a single key.
type Client struct {
	backend    Backend
	key        *ecdsa.PrivateKey
	signer     types.Signer
	signerAddr common.Address
	abi        abi.ABI

	pollInterval time.Duration
}

// NewClient creates a Client bound to the given signing key and chain.
func NewClient(backend Backend, key *ecdsa.PrivateKey, signerAddr common.Address, chainID *big.Int) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, fmt.Errorf("parse token ABI: %w", err)
	}
	return &Client{
		backend:      backend,
		key:          key,
		signer:       types.NewEIP155Signer(chainID),
		signerAddr:   signerAddr,
		abi:          parsed,
		pollInterval: 3 * time.Second,
	}, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────

// Allowance returns how much of token the spender may move out of owner's
// balance.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	result, err := c.call(ctx, token, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return wordToBig(result)
}

// BalanceOf returns the token balance of account, in the token's smallest
// unit.
func (c *Client) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	result, err := c.call(ctx, token, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return wordToBig(result)
}

// Decimals returns the token's declared decimal precision.
func (c *Client) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	result, err := c.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	n, err := wordToBig(result)
	if err != nil {
		return 0, err
	}
	return uint8(n.Uint64()), nil
}

// Symbol returns the token's ticker symbol.
func (c *Client) Symbol(ctx context.Context, token common.Address) (string, error) {
	result, err := c.call(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	out, err := c.abi.Unpack("symbol", result)
	if err != nil {
		return "", fmt.Errorf("decode symbol: %w", err)
	}
	sym, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("symbol: unexpected type %T", out[0])
	}
	return sym, nil
}

// NativeBalance returns the account's POL balance in wei.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, account, nil)
}

// ── Approve ───────────────────────────────────────────────────────────────

// Approve submits token.approve(spender, amount) signed by the client key
// and waits for it to be mined. Returns the transaction hash (zero if the
// failure happened before broadcast). A mined-but-reverted transaction is an
// error.
func (c *Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	calldata, err := c.abi.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack approve: %w", err)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.signerAddr)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price: %w", err)
	}
	gasPrice = new(big.Int).Div(
		new(big.Int).Mul(gasPrice, big.NewInt(gasBumpNumerator)),
		big.NewInt(gasBumpDenominator),
	)

	tx := types.NewTransaction(nonce, token, big.NewInt(0), approveGasLimit, gasPrice, calldata)
	signedTx, err := types.SignTx(tx, c.signer, c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}

	hash := signedTx.Hash()
	if err := c.waitMined(ctx, hash); err != nil {
		return hash, err
	}
	return hash, nil
}

// waitMined polls for the receipt until it lands or ctx is done.
func (c *Client) waitMined(ctx context.Context, txHash common.Hash) error {
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				return nil
			}
			return fmt.Errorf("tx %s reverted in block %d", txHash.Hex(), receipt.BlockNumber)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────

func (c *Client) call(ctx context.Context, to common.Address, method string, args ...interface{}) ([]byte, error) {
	calldata, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &to,
		Data: calldata,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call: %w", method, err)
	}
	return result, nil
}

func wordToBig(result []byte) (*big.Int, error) {
	if len(result) < 32 {
		return nil, fmt.Errorf("unexpected result length: %d", len(result))
	}
	return new(big.Int).SetBytes(result[:32]), nil
}
