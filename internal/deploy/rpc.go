package deploy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ResolveRPCURL picks the node endpoint: an explicit URL first, then Alchemy,
// then Infura. Returns "" when nothing is configured.
func ResolveRPCURL(explicit, alchemyKey, infuraProjectID string) string {
	switch {
	case explicit != "":
		return explicit
	case alchemyKey != "":
		return "https://eth-mainnet.g.alchemy.com/v2/" + alchemyKey
	case infuraProjectID != "":
		return "https://mainnet.infura.io/v3/" + infuraProjectID
	}
	return ""
}

// Dial connects to rpcURL. An empty URL returns (nil, nil) so callers can run
// without deployment support.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, nil
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum rpc: %w", err)
	}
	return client, nil
}

// Verify interface compliance at compile time.
var _ Backend = (*ethclient.Client)(nil)
