// Package apikey issues API keys. Raw keys are returned once; only the bcrypt
// hash is persisted.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

const (
	// PrefixLen is the number of leading raw-key characters stored in clear
	// for lookup.
	PrefixLen = 8

	rawPrefix = "rfc_"
	secretLen = 24
)

// Scopes a key may carry.
const (
	ScopeRead    = "read"
	ScopeAnalyze = "analyze"
	ScopeAdmin   = "admin"
)

var validScopes = []string{ScopeRead, ScopeAnalyze, ScopeAdmin}

var ErrInvalidScope = errors.New("invalid scope")

// Issue creates a key named name with the given scopes. cost is the bcrypt
// cost; zero selects bcrypt.DefaultCost.
func Issue(name string, scopes []string, cost int) (*models.APIKey, string, error) {
	if name == "" {
		return nil, "", errors.New("key name is required")
	}
	if len(scopes) == 0 {
		scopes = []string{ScopeRead}
	}
	for _, s := range scopes {
		if !slices.Contains(validScopes, s) {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
		}
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, "", fmt.Errorf("generating key: %w", err)
	}
	raw := rawPrefix + hex.EncodeToString(secret)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing key: %w", err)
	}

	now := time.Now().UTC()
	key := &models.APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:PrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return key, raw, nil
}

// Matches reports whether raw is the key whose hash is stored in k.
func Matches(k *models.APIKey, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(raw)) == nil
}
