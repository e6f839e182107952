// Package settlement is a read-only gateway to the on-chain settlement
// contract. It exposes contract state for the API surface and packs calldata
// for downstream execution systems; it never signs or broadcasts.
package settlement

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// settlementABI covers the slice of the contract surface this service reads
// or packs calldata for.
const settlementABI = `[
	{"name":"getBalance","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"getTransactionCount","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"executeArb","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"minProfit","type":"uint256"}],"outputs":[]},
	{"name":"deposit","type":"function","stateMutability":"payable","inputs":[],"outputs":[]},
	{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var weiPerUnit = decimal.New(1, 18)

// Client reads settlement contract state over JSON-RPC.
type Client struct {
	eth      *ethclient.Client
	contract common.Address
	abi      abi.ABI
}

// NewClient dials the RPC endpoint and binds the settlement contract address.
func NewClient(ctx context.Context, rpcURL, contractAddr string) (*Client, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("settlement: invalid contract address %q", contractAddr)
	}

	parsed, err := abi.JSON(strings.NewReader(settlementABI))
	if err != nil {
		return nil, fmt.Errorf("settlement: parse abi: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("settlement: dial %s: %w", rpcURL, err)
	}

	return &Client{
		eth:      eth,
		contract: common.HexToAddress(contractAddr),
		abi:      parsed,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Balance returns the account's deposited balance in native units.
func (c *Client) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	if !common.IsHexAddress(account) {
		return decimal.Zero, fmt.Errorf("settlement: %w: invalid account address %q", domain.ErrInvalidInput, account)
	}

	out, err := c.call(ctx, "getBalance", common.HexToAddress(account))
	if err != nil {
		return decimal.Zero, err
	}

	wei, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("settlement: getBalance: %w: unexpected output type", domain.ErrUpstream)
	}
	return decimal.NewFromBigInt(wei, -18), nil
}

// TransactionCount returns the number of settlements the contract has
// processed.
func (c *Client) TransactionCount(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, "getTransactionCount")
	if err != nil {
		return 0, err
	}

	n, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("settlement: getTransactionCount: %w: unexpected output type", domain.ErrUpstream)
	}
	return n.Uint64(), nil
}

// ExecuteArbCalldata packs calldata for executeArb without signing or
// sending it. Execution lives outside this service.
func (c *Client) ExecuteArbCalldata(amount, minProfit decimal.Decimal) ([]byte, error) {
	amountWei, err := ToWei(amount)
	if err != nil {
		return nil, err
	}
	minProfitWei, err := ToWei(minProfit)
	if err != nil {
		return nil, err
	}

	data, err := c.abi.Pack("executeArb", amountWei, minProfitWei)
	if err != nil {
		return nil, fmt.Errorf("settlement: pack executeArb: %w", err)
	}
	return data, nil
}

func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("settlement: pack %s: %w", method, err)
	}

	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("settlement: call %s: %w: %v", method, domain.ErrUpstream, err)
	}

	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("settlement: unpack %s: %w", method, domain.ErrUpstream)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("settlement: %s: %w: empty output", method, domain.ErrUpstream)
	}
	return out, nil
}

// ToWei converts a native-unit decimal to an integer wei amount. Fractions
// below one wei are truncated.
func ToWei(amount decimal.Decimal) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("settlement: %w: amount must be non-negative", domain.ErrInvalidInput)
	}
	return amount.Mul(weiPerUnit).BigInt(), nil
}
