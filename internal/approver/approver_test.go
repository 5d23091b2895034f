package approver

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/gipsh/polymarket-approve-go/internal/erc20"
)

var testOwner = common.HexToAddress("0x00000000000000000000000000000000000000AA")

type approveCall struct {
	token, spender common.Address
	amount         *big.Int
}

// fakeClient implements TokenClient with per-pair canned state.
type fakeClient struct {
	allowances   map[string]*big.Int
	allowanceErr map[string]error
	approveErr   map[string]error

	allowanceOrder []string
	approveCalls   []approveCall

	balance     *big.Int
	balanceErr  error
	decimals    uint8
	decimalsErr error
	native      *big.Int
	nativeErr   error
}

func pairKey(token, spender common.Address) string {
	return token.Hex() + "|" + spender.Hex()
}

func (f *fakeClient) Allowance(_ context.Context, token, _, spender common.Address) (*big.Int, error) {
	key := pairKey(token, spender)
	f.allowanceOrder = append(f.allowanceOrder, key)
	if err := f.allowanceErr[key]; err != nil {
		return nil, err
	}
	if a, ok := f.allowances[key]; ok {
		return a, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeClient) Approve(_ context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	key := pairKey(token, spender)
	if err := f.approveErr[key]; err != nil {
		return common.Hash{}, err
	}
	f.approveCalls = append(f.approveCalls, approveCall{token, spender, amount})
	return common.HexToHash("0xbeef"), nil
}

func (f *fakeClient) BalanceOf(context.Context, common.Address, common.Address) (*big.Int, error) {
	return f.balance, f.balanceErr
}

func (f *fakeClient) Decimals(context.Context, common.Address) (uint8, error) {
	return f.decimals, f.decimalsErr
}

func (f *fakeClient) NativeBalance(context.Context, common.Address) (*big.Int, error) {
	return f.native, f.nativeErr
}

func testRunner(client TokenClient, dryRun bool) *Runner {
	r := NewRunner(client, testOwner, zerolog.Nop(), dryRun)
	r.delay = 0
	return r
}

func aboveThreshold() *big.Int {
	return new(big.Int).Add(approvedThreshold, big.NewInt(1))
}

func TestTasksTable(t *testing.T) {
	tasks := Tasks()
	if len(tasks) != 8 {
		t.Fatalf("expected 8 tasks, got %d", len(tasks))
	}
	// First four are USDC.e against each venue contract, then native USDC.
	for i, task := range tasks {
		wantToken := USDCBridged
		if i >= 4 {
			wantToken = USDCNative
		}
		if task.Token != wantToken {
			t.Fatalf("task %d token = %s, want %s", i, task.Token.Name, wantToken.Name)
		}
	}
	spenders := []Spender{CTFExchange, NegRiskExchange, NegRiskAdapter, ConditionalTokens}
	for i, task := range tasks[:4] {
		if task.Spender != spenders[i] {
			t.Fatalf("task %d spender = %s, want %s", i, task.Spender.Name, spenders[i].Name)
		}
	}
}

func TestAlreadyApprovedSkipsSubmission(t *testing.T) {
	client := &fakeClient{
		allowances: map[string]*big.Int{},
	}
	for _, task := range Tasks() {
		client.allowances[pairKey(task.Token.Address, task.Spender.Address)] = aboveThreshold()
	}

	sum := testRunner(client, false).Run(context.Background(), Tasks())

	if sum.Succeeded != 8 || sum.Failed != 0 {
		t.Fatalf("summary = %+v, want 8/0", sum)
	}
	if len(client.approveCalls) != 0 {
		t.Fatalf("expected no submissions, got %d", len(client.approveCalls))
	}
}

func TestAllowanceAtThresholdStillApproves(t *testing.T) {
	// Exactly at the threshold does not count as "already approved".
	task := Tasks()[0]
	client := &fakeClient{
		allowances: map[string]*big.Int{
			pairKey(task.Token.Address, task.Spender.Address): new(big.Int).Set(approvedThreshold),
		},
	}

	sum := testRunner(client, false).Run(context.Background(), Tasks()[:1])

	if sum.Succeeded != 1 {
		t.Fatalf("summary = %+v, want 1/0", sum)
	}
	if len(client.approveCalls) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(client.approveCalls))
	}
}

func TestZeroAllowanceApprovesMax(t *testing.T) {
	client := &fakeClient{}

	sum := testRunner(client, false).Run(context.Background(), Tasks())

	if sum.Succeeded != 8 || sum.Failed != 0 {
		t.Fatalf("summary = %+v, want 8/0", sum)
	}
	if len(client.approveCalls) != 8 {
		t.Fatalf("expected 8 submissions, got %d", len(client.approveCalls))
	}
	for i, call := range client.approveCalls {
		task := Tasks()[i]
		if call.token != task.Token.Address || call.spender != task.Spender.Address {
			t.Fatalf("submission %d targets wrong pair", i)
		}
		if call.amount.Cmp(erc20.MaxUint256) != 0 {
			t.Fatalf("submission %d amount = %s, want max uint256", i, call.amount)
		}
	}
}

func TestTasksRunInDeclaredOrder(t *testing.T) {
	client := &fakeClient{}

	testRunner(client, false).Run(context.Background(), Tasks())

	for i, task := range Tasks() {
		want := pairKey(task.Token.Address, task.Spender.Address)
		if client.allowanceOrder[i] != want {
			t.Fatalf("allowance check %d out of order", i)
		}
	}
}

func TestFailedTaskDoesNotAbortRun(t *testing.T) {
	bad := Tasks()[2]
	client := &fakeClient{
		approveErr: map[string]error{
			pairKey(bad.Token.Address, bad.Spender.Address): errors.New("tx reverted in block 42"),
		},
	}

	sum := testRunner(client, false).Run(context.Background(), Tasks())

	if sum.Succeeded != 7 || sum.Failed != 1 {
		t.Fatalf("summary = %+v, want 7/1", sum)
	}
	if len(client.allowanceOrder) != 8 {
		t.Fatalf("expected all 8 pairs checked, got %d", len(client.allowanceOrder))
	}
	if len(client.approveCalls) != 7 {
		t.Fatalf("expected 7 successful submissions, got %d", len(client.approveCalls))
	}
}

func TestAllowanceReadErrorCountsAsFailure(t *testing.T) {
	bad := Tasks()[0]
	client := &fakeClient{
		allowanceErr: map[string]error{
			pairKey(bad.Token.Address, bad.Spender.Address): errors.New("connection refused"),
		},
	}

	sum := testRunner(client, false).Run(context.Background(), Tasks())

	if sum.Succeeded != 7 || sum.Failed != 1 {
		t.Fatalf("summary = %+v, want 7/1", sum)
	}
}

func TestDryRunNeverSubmits(t *testing.T) {
	client := &fakeClient{}

	sum := testRunner(client, true).Run(context.Background(), Tasks())

	if sum.Succeeded != 8 || sum.Failed != 0 {
		t.Fatalf("summary = %+v, want 8/0", sum)
	}
	if len(client.approveCalls) != 0 {
		t.Fatalf("dry run submitted %d transactions", len(client.approveCalls))
	}
	if len(client.allowanceOrder) != 8 {
		t.Fatalf("dry run should still check all 8 pairs, got %d", len(client.allowanceOrder))
	}
}

func TestFormatBalance(t *testing.T) {
	client := &fakeClient{balance: big.NewInt(1_234_567), decimals: 6}
	r := testRunner(client, false)

	if got := r.FormatBalance(context.Background(), USDCBridged); got != "1.234567" {
		t.Fatalf("balance = %q, want 1.234567", got)
	}

	client.balanceErr = errors.New("timeout")
	if got := r.FormatBalance(context.Background(), USDCBridged); got != "0" {
		t.Fatalf("balance on read error = %q, want 0", got)
	}

	client.balanceErr = nil
	client.decimalsErr = errors.New("bad response")
	if got := r.FormatBalance(context.Background(), USDCBridged); got != "0" {
		t.Fatalf("balance on decimals error = %q, want 0", got)
	}
}
