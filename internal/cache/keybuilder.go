package cache

import (
	"crypto/md5"
	"errors"
	"fmt"
	"strings"

	"go-cf-cache/internal/interfaces"
)

// MaxKeyLength bounds store keys; longer logical keys are hashed
const MaxKeyLength = 250

// Ensure KeyBuilderImpl implements interfaces.KeyBuilder
var _ interfaces.KeyBuilder = (*KeyBuilderImpl)(nil)

// KeyBuilderImpl implements the KeyBuilder interface
type KeyBuilderImpl struct{}

// NewKeyBuilder creates a new KeyBuilder instance
func NewKeyBuilder() interfaces.KeyBuilder {
	return &KeyBuilderImpl{}
}

// Build creates the store key for a logical key inside a cache group
func (kb *KeyBuilderImpl) Build(group string, key string) (string, error) {
	if group == "" {
		return "", errors.New("cache group cannot be empty")
	}
	if key == "" {
		return "", errors.New("key cannot be empty")
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return "", fmt.Errorf("key contains whitespace: %q", key)
	}

	storeKey := group + ":" + key
	if len(storeKey) <= MaxKeyLength {
		return storeKey, nil
	}

	// Keep a readable prefix so oversized keys stay greppable
	hasher := md5.New()
	hasher.Write([]byte(key))
	hash := fmt.Sprintf("%x", hasher.Sum(nil))
	prefix := storeKey[:MaxKeyLength-len(hash)-1]
	return prefix + ":" + hash, nil
}
