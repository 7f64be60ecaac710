// Package credentials keeps provider API keys in the integration_tokens
// table so they can be rotated without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"articlegen/internal/infra"
	"articlegen/internal/sqlinline"
)

const (
	ProviderGeneration = "generation"
)

// Token is a stored provider key.
type Token struct {
	Value     string
	UpdatedAt time.Time
}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// GenerationAPIKey returns the stored generation provider key, or "" when
// none is stored.
func (s *Store) GenerationAPIKey(ctx context.Context) (string, error) {
	tok, err := s.Token(ctx, ProviderGeneration)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

func (s *Store) Token(ctx context.Context, provider string) (Token, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var tok Token
	if err := row.Scan(&tok.Value, &tok.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return Token{}, nil
		}
		return Token{}, err
	}
	tok.Value = strings.TrimSpace(tok.Value)
	return tok, nil
}

func (s *Store) SetGenerationAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("generation api key is required")
	}
	return s.upsert(ctx, ProviderGeneration, key, map[string]any{"source": "articlectl"})
}

// DeleteGenerationAPIKey removes the stored key so the environment value is
// used again.
func (s *Store) DeleteGenerationAPIKey(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, ProviderGeneration)
	return err
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
