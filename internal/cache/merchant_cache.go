package cache

import (
	"sync"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// MerchantCache memoizes business-number lookups on the hot matching path.
// Negative results are not cached so newly registered merchants take effect
// immediately.
type MerchantCache struct {
	mu    sync.RWMutex
	store map[string]*models.EcoMerchant
}

func NewMerchantCache() *MerchantCache {
	return &MerchantCache{
		store: make(map[string]*models.EcoMerchant),
	}
}

func (c *MerchantCache) Get(businessNumber string) (*models.EcoMerchant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.store[businessNumber]
	return m, ok
}

func (c *MerchantCache) Set(businessNumber string, m *models.EcoMerchant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[businessNumber] = m
}
