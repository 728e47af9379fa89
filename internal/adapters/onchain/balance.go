package onchain

// balance.go — lectura del saldo USDC.e on-chain para el gate previo a cada
// orden. Prueba los RPC configurados en orden hasta que uno responde.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const (
	// USDC.e collateral on Polygon
	usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	usdcDecimals = 6
)

// DefaultRPCURLs son los endpoints públicos de Polygon que se usan si la
// configuración no define ninguno.
var DefaultRPCURLs = []string{
	"https://polygon-rpc.com",
	"https://rpc-mainnet.maticvigil.com",
	"https://polygon-mainnet.chainstacklabs.com",
}

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[{
		"name":"balanceOf","type":"function",
		"inputs":[{"name":"account","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]
	}]`))
	if err != nil {
		panic("balanceOf abi: " + err.Error())
	}
}

type endpoint struct {
	url    string
	caller ethereum.ContractCaller
}

// BalanceClient implementa ports.BalanceOracle.
type BalanceClient struct {
	endpoints []endpoint
	token     common.Address
	closers   []func()
}

// NewBalanceClient conecta con cada RPC. Los endpoints que no se pueden
// abrir se saltan; falla solo si no queda ninguno.
func NewBalanceClient(ctx context.Context, rpcURLs []string) (*BalanceClient, error) {
	if len(rpcURLs) == 0 {
		rpcURLs = DefaultRPCURLs
	}
	bc := &BalanceClient{token: common.HexToAddress(usdcEAddress)}
	for _, u := range rpcURLs {
		cl, err := ethclient.DialContext(ctx, u)
		if err != nil {
			slog.Warn("rpc endpoint skipped", "url", u, "err", err)
			continue
		}
		bc.endpoints = append(bc.endpoints, endpoint{url: u, caller: cl})
		bc.closers = append(bc.closers, cl.Close)
	}
	if len(bc.endpoints) == 0 {
		return nil, fmt.Errorf("onchain: no usable rpc endpoint among %d", len(rpcURLs))
	}
	return bc, nil
}

// Close cierra las conexiones RPC.
func (bc *BalanceClient) Close() {
	for _, c := range bc.closers {
		c()
	}
}

// USDCBalance devuelve el saldo USDC.e de address en unidades de USDC.
func (bc *BalanceClient) USDCBalance(ctx context.Context, address string) (float64, error) {
	if !common.IsHexAddress(address) {
		return 0, fmt.Errorf("onchain.USDCBalance: invalid address %q", address)
	}
	callData, err := erc20ABI.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		return 0, fmt.Errorf("onchain.USDCBalance: pack: %w", err)
	}

	var errs []error
	for _, ep := range bc.endpoints {
		raw, err := bc.call(ctx, ep.caller, callData)
		if err == nil {
			bal, _ := decimal.NewFromBigInt(raw, -usdcDecimals).Float64()
			return bal, nil
		}
		if ctx.Err() != nil {
			return 0, fmt.Errorf("onchain.USDCBalance: %w", ctx.Err())
		}
		slog.Debug("rpc balance call failed", "url", ep.url, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", ep.url, err))
	}
	return 0, fmt.Errorf("onchain.USDCBalance: all endpoints failed: %w", errors.Join(errs...))
}

func (bc *BalanceClient) call(ctx context.Context, caller ethereum.ContractCaller, data []byte) (*big.Int, error) {
	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &bc.token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	vals, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("empty result")
	}
	raw, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", vals[0])
	}
	return raw, nil
}
