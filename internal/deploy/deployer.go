// Package deploy builds unsigned contract-creation transactions and relays
// client-signed ones. The server never holds a signing key.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"funding-ledger/internal/observability"
	"funding-ledger/internal/storage"
)

var (
	// ErrNotConfigured is returned when no RPC endpoint is configured.
	ErrNotConfigured = errors.New("deployment rpc not configured")

	// ErrUpstream wraps failures of the Ethereum node.
	ErrUpstream = errors.New("ethereum node error")
)

// gasHeadroomPercent is added on top of the node's gas estimate.
const gasHeadroomPercent = 20

// Backend is the subset of ethclient.Client the deployer needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// PrepareRequest describes the contract to deploy.
type PrepareRequest struct {
	From            string `json:"from"`
	Bytecode        string `json:"bytecode"`
	ConstructorArgs string `json:"constructorArgs"` // ABI-encoded, 0x hex
	ChainID         *int64 `json:"chainId"`
}

// UnsignedTx is an EIP-1559 contract-creation transaction ready for client signing.
type UnsignedTx struct {
	Type                 hexutil.Uint64 `json:"type"`
	ChainID              *hexutil.Big   `json:"chainId"`
	From                 common.Address `json:"from"`
	Nonce                hexutil.Uint64 `json:"nonce"`
	Gas                  hexutil.Uint64 `json:"gas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big   `json:"value"`
	Data                 hexutil.Bytes  `json:"data"`
	ContractAddress      common.Address `json:"contractAddress"` // CREATE(from, nonce)
}

// SubmitRequest carries a signed raw transaction.
type SubmitRequest struct {
	SignedTransaction string `json:"signedTransaction"`
}

// SubmitResult is the broadcast outcome.
type SubmitResult struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	From            common.Address `json:"from"`
	ContractAddress common.Address `json:"contractAddress"`
	Nonce           uint64         `json:"nonce"`
	ExplorerURL     string         `json:"explorerUrl"`
}

// Deployer prepares and relays deployments through a Backend.
type Deployer struct {
	backend     Backend
	explorerURL string
	logger      logrus.FieldLogger
}

// NewDeployer creates a deployer. A nil backend makes every call return ErrNotConfigured.
func NewDeployer(backend Backend, explorerURL string, logger logrus.FieldLogger) *Deployer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Deployer{
		backend:     backend,
		explorerURL: strings.TrimRight(explorerURL, "/"),
		logger:      logger.WithField("component", "deploy"),
	}
}

// Prepare builds the unsigned transaction for req.
func (d *Deployer) Prepare(ctx context.Context, req PrepareRequest) (*UnsignedTx, error) {
	if d.backend == nil {
		return nil, ErrNotConfigured
	}

	if !strings.HasPrefix(strings.ToLower(req.From), "0x") || !common.IsHexAddress(req.From) {
		return nil, fmt.Errorf("from %q is not an address: %w", req.From, storage.ErrInvalidInput)
	}
	from := common.HexToAddress(req.From)

	code, err := decodeHex("bytecode", req.Bytecode)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("bytecode is empty: %w", storage.ErrInvalidInput)
	}
	if strings.TrimSpace(req.ConstructorArgs) != "" {
		args, err := decodeHex("constructorArgs", req.ConstructorArgs)
		if err != nil {
			return nil, err
		}
		code = append(code, args...)
	}

	chainID, err := d.backend.ChainID(ctx)
	if err != nil {
		return nil, upstream("chain id", err)
	}
	if req.ChainID != nil && chainID.Cmp(big.NewInt(*req.ChainID)) != 0 {
		return nil, fmt.Errorf("chainId %d does not match node chain %s: %w", *req.ChainID, chainID, storage.ErrInvalidInput)
	}

	nonce, err := d.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, upstream("pending nonce", err)
	}
	tip, err := d.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, upstream("gas tip", err)
	}
	head, err := d.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, upstream("latest header", err)
	}
	gas, err := d.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, Data: code})
	if err != nil {
		return nil, upstream("estimate gas", err)
	}
	gas += gas * gasHeadroomPercent / 100

	// maxFee = 2*baseFee + tip
	maxFee := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		maxFee.Add(maxFee, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	tx := &UnsignedTx{
		Type:                 hexutil.Uint64(types.DynamicFeeTxType),
		ChainID:              (*hexutil.Big)(chainID),
		From:                 from,
		Nonce:                hexutil.Uint64(nonce),
		Gas:                  hexutil.Uint64(gas),
		MaxFeePerGas:         (*hexutil.Big)(maxFee),
		MaxPriorityFeePerGas: (*hexutil.Big)(tip),
		Value:                (*hexutil.Big)(new(big.Int)),
		Data:                 code,
		ContractAddress:      crypto.CreateAddress(from, nonce),
	}

	observability.RecordDeployTransaction("prepare", "ok")
	d.logger.WithFields(logrus.Fields{
		"from":     from.Hex(),
		"nonce":    nonce,
		"gas":      gas,
		"contract": tx.ContractAddress.Hex(),
	}).Info("deployment prepared")
	return tx, nil
}

// Submit validates a signed contract-creation transaction and broadcasts it.
func (d *Deployer) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if d.backend == nil {
		return nil, ErrNotConfigured
	}

	raw, err := decodeHex("signedTransaction", req.SignedTransaction)
	if err != nil {
		return nil, err
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("decode signed transaction: %v: %w", err, storage.ErrInvalidInput)
	}
	if tx.To() != nil {
		return nil, fmt.Errorf("transaction has a recipient, only contract creation is relayed: %w", storage.ErrInvalidInput)
	}

	chainID, err := d.backend.ChainID(ctx)
	if err != nil {
		return nil, upstream("chain id", err)
	}
	if tx.Protected() && tx.ChainId().Cmp(chainID) != 0 {
		return nil, fmt.Errorf("transaction chain %s does not match node chain %s: %w", tx.ChainId(), chainID, storage.ErrInvalidInput)
	}
	if !tx.Protected() {
		return nil, fmt.Errorf("transaction is not replay protected: %w", storage.ErrInvalidInput)
	}

	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return nil, fmt.Errorf("recover sender: %v: %w", err, storage.ErrInvalidInput)
	}

	if err := d.backend.SendTransaction(ctx, tx); err != nil {
		observability.RecordDeployTransaction("submit", "error")
		return nil, upstream("send transaction", err)
	}

	res := &SubmitResult{
		TransactionHash: tx.Hash(),
		From:            from,
		ContractAddress: crypto.CreateAddress(from, tx.Nonce()),
		Nonce:           tx.Nonce(),
	}
	if d.explorerURL != "" {
		res.ExplorerURL = d.explorerURL + "/tx/" + tx.Hash().Hex()
	}

	observability.RecordDeployTransaction("submit", "ok")
	d.logger.WithFields(logrus.Fields{
		"tx_hash":  res.TransactionHash.Hex(),
		"from":     from.Hex(),
		"contract": res.ContractAddress.Hex(),
	}).Info("deployment broadcast")
	return res, nil
}

func decodeHex(field, s string) ([]byte, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", field, err, storage.ErrInvalidInput)
	}
	return b, nil
}

func upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
}
