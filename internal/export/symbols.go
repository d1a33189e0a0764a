package export

import (
	"context"

	"github.com/smartdevs17/balance-history/internal/models"
)

// MetadataSource supplies token metadata. The storage layer satisfies this;
// a nil result with no error means the token is not registered.
type MetadataSource interface {
	GetTokenMetadata(ctx context.Context, tokenID string) (*models.TokenMetadata, error)
}

// MetadataSymbols resolves display symbols from a metadata source. Tokens
// without registered metadata fall back to their token_id so an export never
// fails on an unknown asset.
type MetadataSymbols struct {
	Source MetadataSource
}

func (m *MetadataSymbols) TokenSymbol(ctx context.Context, tokenID string) (string, error) {
	metadata, err := m.Source.GetTokenMetadata(ctx, tokenID)
	if err != nil {
		return "", err
	}
	if metadata == nil || metadata.Symbol == "" {
		return tokenID, nil
	}
	return metadata.Symbol, nil
}
