// Provide primitive to work with a bundler RPC
// Bundler RPC is stateless
package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-resty/resty/v2"

	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/mevboost-aa/pkg/logger"
)

const httpTimeout = 30 * time.Second

// BundlerClient defines a client for interacting with an EIP-4337 bundler RPC endpoint.
type BundlerClient struct {
	client *rpc.Client
	http   *resty.Client
	url    string
	logger logger.Logger
}

// NewBundlerClient creates a new BundlerClient that connects to the given URL.
func NewBundlerClient(url string, lgr logger.Logger) (*BundlerClient, error) {
	// DialHTTP is more compatible with HTTP-based bundler endpoints
	c, err := rpc.DialHTTP(url)
	if err != nil {
		return nil, fmt.Errorf("error creating bundler client: %w", err)
	}

	return &BundlerClient{
		client: c,
		http:   resty.New().SetTimeout(httpTimeout),
		url:    url,
		logger: logger.EnsureLogger(lgr),
	}, nil
}

// Close closes the underlying RPC client connection.
func (bc *BundlerClient) Close() {
	bc.client.Close()
}

// SendUserOperation sends a UserOperation to the bundler and returns its hash.
func (bc *BundlerClient) SendUserOperation(
	ctx context.Context,
	userOp userop.UserOperation,
	entrypoint common.Address,
) (common.Hash, error) {
	// Try the plain HTTP path first, some bundlers reject the batch framing of the RPC client
	hash, err := bc.sendUserOperationHTTP(ctx, userOp, entrypoint)
	if err != nil {
		bc.logger.Warn("HTTP SendUserOperation failed, trying RPC fallback", "error", err)
		return bc.sendUserOperationRPC(ctx, userOp, entrypoint)
	}
	return hash, nil
}

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC error returned by the bundler. It carries the error
// data so revert payloads stay reachable through rpc.DataError.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

func (e *RPCError) ErrorCode() int         { return e.Code }
func (e *RPCError) ErrorData() interface{} { return e.Data }

func (bc *BundlerClient) callHTTP(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	resp, err := bc.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(jsonRPCRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		Post(bc.url)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%d %s: %s", resp.StatusCode(), http.StatusText(resp.StatusCode()), resp.String())
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	return json.Unmarshal(rpcResp.Result, result)
}

// sendUserOperationHTTP sends UserOperation via direct HTTP request
func (bc *BundlerClient) sendUserOperationHTTP(
	ctx context.Context,
	userOp userop.UserOperation,
	entrypoint common.Address,
) (common.Hash, error) {
	bc.logger.Debug("eth_sendUserOperation",
		"sender", userOp.Sender.Hex(),
		"nonce", userOp.Nonce,
		"entrypoint", entrypoint.Hex())

	// Some bundlers require the EIP-55 checksummed EntryPoint
	var hash common.Hash
	if err := bc.callHTTP(ctx, &hash, "eth_sendUserOperation", userOp, entrypoint.Hex()); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// sendUserOperationRPC sends UserOperation via RPC client (fallback)
func (bc *BundlerClient) sendUserOperationRPC(
	ctx context.Context,
	userOp userop.UserOperation,
	entrypoint common.Address,
) (common.Hash, error) {
	var hash common.Hash
	err := bc.client.CallContext(ctx, &hash, "eth_sendUserOperation", userOp, entrypoint.Hex())
	if err != nil {
		return common.Hash{}, err
	}

	return hash, nil
}

// EstimateUserOperationGas asks the bundler to simulate userOp and return its gas limits.
func (bc *BundlerClient) EstimateUserOperationGas(
	ctx context.Context,
	userOp userop.UserOperation,
	entrypoint common.Address,
) (*GasEstimation, error) {
	var raw map[string]interface{}
	if err := bc.client.CallContext(ctx, &raw, "eth_estimateUserOperationGas", userOp, entrypoint.Hex()); err != nil {
		return nil, fmt.Errorf("eth_estimateUserOperationGas: %w", err)
	}

	est, err := decodeGasEstimation(raw)
	if err != nil {
		return nil, fmt.Errorf("eth_estimateUserOperationGas: %w", err)
	}

	bc.logger.Debug("bundler gas estimation",
		"preVerificationGas", est.PreVerificationGas,
		"verificationGasLimit", est.VerificationGasLimit,
		"callGasLimit", est.CallGasLimit)
	return est, nil
}

// GetUserOperationByHash returns the operation known to the bundler, nil when unknown.
func (bc *BundlerClient) GetUserOperationByHash(ctx context.Context, hash common.Hash) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := bc.client.CallContext(ctx, &result, "eth_getUserOperationByHash", hash)
	return result, err
}

// GetUserOperationReceipt returns the receipt of a mined operation, nil while pending.
func (bc *BundlerClient) GetUserOperationReceipt(ctx context.Context, hash common.Hash) (*UserOperationReceipt, error) {
	var raw map[string]interface{}
	if err := bc.client.CallContext(ctx, &raw, "eth_getUserOperationReceipt", hash); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return decodeReceipt(raw)
}

func (bc *BundlerClient) SupportedEntryPoints(ctx context.Context) ([]common.Address, error) {
	var result []common.Address
	err := bc.client.CallContext(ctx, &result, "eth_supportedEntryPoints")
	return result, err
}

func (bc *BundlerClient) ChainID(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := bc.client.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}
