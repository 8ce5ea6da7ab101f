package cache

import (
	"time"

	"github.com/ReneKroon/ttlcache"

	"github.com/myket-community/bridge-server/iab"
)

// Helper is a read-through catalog cache over an iab.Helper. Only sku
// details are cached; owned purchases always come from the provider, so the
// fast path is taken only for catalog-only queries (non-empty sku list) with
// every sku cached. Consume and purchase lookups query with an empty or nil
// sku list and never hit it.
type Helper struct {
	delegate iab.Helper
	cache    *ttlcache.Cache
}

func NewCachingHelper(delegate iab.Helper, ttl time.Duration) iab.Helper {
	cache := ttlcache.NewCache()
	cache.SetTTL(ttl)
	return &Helper{
		delegate: delegate,
		cache:    cache,
	}
}

func (c *Helper) StartSetup(listener iab.SetupFinishedListener) {
	c.delegate.StartSetup(listener)
}

func (c *Helper) LaunchPurchaseFlow(act iab.Activity, sku, itemType, developerPayload string, listener iab.PurchaseFinishedListener) error {
	return c.delegate.LaunchPurchaseFlow(act, sku, itemType, developerPayload, listener)
}

func (c *Helper) QueryInventoryAsync(querySkuDetails bool, skus []string, listener iab.QueryInventoryFinishedListener) {
	if querySkuDetails && len(skus) > 0 {
		if inv, ok := c.cachedInventory(skus); ok {
			listener(iab.Result{Response: iab.ResponseOK, Message: "Inventory served from cache."}, inv)
			return
		}
	}

	c.delegate.QueryInventoryAsync(querySkuDetails, skus, func(result iab.Result, inv *iab.Inventory) {
		if result.IsSuccess() && inv != nil {
			for _, d := range inv.AllSkuDetails() {
				c.cache.Set(d.Sku, d.Clone())
			}
		}
		listener(result, inv)
	})
}

func (c *Helper) ConsumeAsync(purchase *iab.Purchase, listener iab.ConsumeFinishedListener) {
	c.delegate.ConsumeAsync(purchase, listener)
}

func (c *Helper) Dispose() {
	c.delegate.Dispose()
}

// cachedInventory assembles a catalog-only inventory when every requested
// sku is cached and unexpired.
func (c *Helper) cachedInventory(skus []string) (*iab.Inventory, bool) {
	inv := iab.NewInventory()
	for _, sku := range skus {
		cached, ok := c.cache.Get(sku)
		if !ok {
			return nil, false
		}
		inv.AddSkuDetails(cached.(*iab.SkuDetails).Clone())
	}
	return inv, true
}

var _ iab.Helper = (*Helper)(nil)
