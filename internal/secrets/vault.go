package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// VaultClient reads secrets from Azure Key Vault
type VaultClient struct {
	client    *azsecrets.Client
	vaultName string
	logger    *zap.Logger
}

// NewVaultClient creates a new Azure Key Vault client using DefaultAzureCredential
// (environment credentials, managed identity or Azure CLI login)
func NewVaultClient(vaultName string, logger *zap.Logger) (*VaultClient, error) {
	if vaultName == "" {
		return nil, fmt.Errorf("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		logger.Error("Failed to create Azure credential", zap.Error(err))
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", vaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		logger.Error("Failed to create Key Vault client", zap.Error(err))
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	logger.Info("Azure Key Vault client initialized", zap.String("vault_url", vaultURL))

	return &VaultClient{client: client, vaultName: vaultName, logger: logger}, nil
}

// GetSecret implements Store
func (v *VaultClient) GetSecret(ctx context.Context, secretName string) (string, error) {
	resp, err := v.client.GetSecret(ctx, secretName, "", nil)
	if err != nil {
		v.logger.Error("Failed to get secret from Key Vault",
			zap.String("secret_name", secretName),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret '%s': %w", secretName, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", secretName)
	}
	return *resp.Value, nil
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// CachingStore memoizes successful lookups of another store for a fixed TTL
type CachingStore struct {
	next Store
	ttl  time.Duration
	now  func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSecret
}

// NewCachingStore wraps next with a TTL cache. A zero ttl uses five minutes.
func NewCachingStore(next Store, ttl time.Duration) *CachingStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachingStore{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cachedSecret),
	}
}

// WithClock replaces the time source, for tests
func (c *CachingStore) WithClock(now func() time.Time) *CachingStore {
	c.now = now
	return c
}

// GetSecret implements Store
func (c *CachingStore) GetSecret(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if cached, ok := c.cache[name]; ok {
		if c.now().Before(cached.expiresAt) {
			c.mu.Unlock()
			return cached.value, nil
		}
		delete(c.cache, name)
	}
	c.mu.Unlock()

	value, err := c.next.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cache[name] = cachedSecret{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

// Clear drops every cached secret
func (c *CachingStore) Clear() {
	c.mu.Lock()
	c.cache = make(map[string]cachedSecret)
	c.mu.Unlock()
}
