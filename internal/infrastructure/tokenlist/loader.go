// Package tokenlist loads the maintained token list that decides which
// fungible tokens are listed, and therefore price-eligible.
package tokenlist

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
)

type tokenListFile struct {
	NetworkID int                    `json:"networkId"`
	Tokens    []entity.FungibleToken `json:"tokens"`
}

// LoadTokenList reads and parses a token list JSON file. Every token in the
// file is marked Listed; entries without an id are skipped.
func LoadTokenList(path string) ([]entity.FungibleToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token list file %s: %w", path, err)
	}

	var file tokenListFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse token list file %s: %w", path, err)
	}

	tokens := make([]entity.FungibleToken, 0, len(file.Tokens))
	for _, token := range file.Tokens {
		if token.ID == "" {
			continue
		}
		token.Listed = true
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// FileProvider implements port.TokenListProvider by loading a token list
// file once and caching it.
type FileProvider struct {
	filePath string
	logger   port.Logger

	mu     sync.Mutex
	cached []entity.FungibleToken
}

// NewFileProvider creates a token list provider backed by the given file.
func NewFileProvider(filePath string, l port.Logger) *FileProvider {
	return &FileProvider{filePath: filePath, logger: l}
}

// GetTokenList returns the listed tokens, loading the file on first use.
func (p *FileProvider) GetTokenList() ([]entity.FungibleToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		return p.cached, nil
	}

	tokens, err := LoadTokenList(p.filePath)
	if err != nil {
		p.logger.Error("Failed to load token list", "path", p.filePath, "error", err)
		return nil, err
	}

	p.cached = tokens
	p.logger.Info("Token list loaded", "path", p.filePath, "count", len(tokens))
	return tokens, nil
}
