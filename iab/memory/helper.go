package memory

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/myket-community/bridge-server/iab"
)

// Helper is an in-process iab.Helper backed by a seeded catalog. It stands
// in for the provider binding in tests and in the sandbox binary. Listeners
// are invoked inline, mirroring the provider contract of completing on the
// host dispatch thread.
type Helper struct {
	mu sync.Mutex

	packageName string
	disposed    bool
	inFlight    bool

	catalog map[string]*iab.SkuDetails
	owned   map[string]*iab.Purchase // keyed by sku

	setupFailure    *iab.Result
	queryFailure    *iab.Result
	consumeFailure  *iab.Result
	purchaseFailure *iab.Result
	launchErr       error
}

// NewHelper builds a helper reporting purchases under the given package
// name.
func NewHelper(packageName string) *Helper {
	return &Helper{
		packageName: packageName,
		catalog:     make(map[string]*iab.SkuDetails),
		owned:       make(map[string]*iab.Purchase),
	}
}

// NewFactory returns a HelperFactory handing out h. Key validation happens
// above the factory; handing out re-binds a previously disposed helper the
// way a fresh service binding would.
func NewFactory(h *Helper) iab.HelperFactory {
	return func(rsaPublicKey string) (iab.Helper, error) {
		if rsaPublicKey == "" {
			return nil, iab.ErrNoKey
		}
		h.mu.Lock()
		h.disposed = false
		h.mu.Unlock()
		return h, nil
	}
}

// AddCatalogItem seeds one purchasable sku. The price is formatted the way
// the provider would return it.
func (h *Helper) AddCatalogItem(sku, itemType string, price decimal.Decimal, title, description string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.catalog[sku] = &iab.SkuDetails{
		Sku:         sku,
		Type:        itemType,
		Price:       price.StringFixed(0) + " Rials",
		Title:       title,
		Description: description,
	}
}

// GrantPurchase seeds an owned purchase and returns its token.
func (h *Helper) GrantPurchase(sku, itemType, developerPayload string) string {
	p := h.newPurchase(sku, itemType, developerPayload)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.owned[sku] = p
	return p.Token
}

// FailSetup makes the next StartSetup report the given result.
func (h *Helper) FailSetup(result iab.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setupFailure = &result
}

// FailQueries makes every QueryInventoryAsync report the given result.
func (h *Helper) FailQueries(result iab.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queryFailure = &result
}

// FailConsume makes every ConsumeAsync report the given result.
func (h *Helper) FailConsume(result iab.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consumeFailure = &result
}

// FailPurchase makes the next purchase flow finish with the given result
// instead of succeeding.
func (h *Helper) FailPurchase(result iab.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.purchaseFailure = &result
}

// FailLaunch makes the next LaunchPurchaseFlow fail synchronously.
func (h *Helper) FailLaunch(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.launchErr = err
}

// Disposed reports whether Dispose was called.
func (h *Helper) Disposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

func (h *Helper) StartSetup(listener iab.SetupFinishedListener) {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		listener(iab.Result{Response: iab.ResponseError, Message: "helper disposed"})
		return
	}
	failure := h.setupFailure
	h.setupFailure = nil
	h.mu.Unlock()

	if failure != nil {
		listener(*failure)
		return
	}
	listener(iab.Result{Response: iab.ResponseOK, Message: "Setup successful."})
}

func (h *Helper) LaunchPurchaseFlow(act iab.Activity, sku, itemType, developerPayload string, listener iab.PurchaseFinishedListener) error {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return errors.New("helper disposed")
	}
	if h.inFlight {
		h.mu.Unlock()
		return errors.New("another purchase flow is already in progress")
	}
	if err := h.launchErr; err != nil {
		h.launchErr = nil
		h.mu.Unlock()
		return err
	}
	failure := h.purchaseFailure
	h.purchaseFailure = nil
	h.inFlight = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.inFlight = false
		h.mu.Unlock()
	}()

	if failure != nil {
		listener(*failure, nil)
		return nil
	}

	p := h.newPurchase(sku, itemType, developerPayload)
	h.mu.Lock()
	h.owned[sku] = p
	h.mu.Unlock()

	listener(iab.Result{Response: iab.ResponseOK, Message: "Success"}, p.Clone())
	return nil
}

func (h *Helper) QueryInventoryAsync(querySkuDetails bool, skus []string, listener iab.QueryInventoryFinishedListener) {
	h.mu.Lock()
	if failure := h.queryFailure; failure != nil {
		h.mu.Unlock()
		listener(*failure, nil)
		return
	}

	inv := iab.NewInventory()
	for _, p := range h.owned {
		inv.AddPurchase(p.Clone())
	}
	if querySkuDetails {
		for _, sku := range skus {
			if d, ok := h.catalog[sku]; ok {
				inv.AddSkuDetails(d.Clone())
			}
		}
	}
	h.mu.Unlock()

	listener(iab.Result{Response: iab.ResponseOK, Message: "Inventory refresh successful."}, inv)
}

func (h *Helper) ConsumeAsync(purchase *iab.Purchase, listener iab.ConsumeFinishedListener) {
	h.mu.Lock()
	if failure := h.consumeFailure; failure != nil {
		h.mu.Unlock()
		listener(purchase, *failure)
		return
	}

	owned, ok := h.owned[purchase.Sku]
	if !ok || owned.Token != purchase.Token {
		h.mu.Unlock()
		listener(purchase, iab.Result{
			Response: iab.ResponseItemNotOwned,
			Message:  "Item is not owned.",
		})
		return
	}
	delete(h.owned, purchase.Sku)
	h.mu.Unlock()

	listener(purchase, iab.Result{Response: iab.ResponseOK, Message: "Successful consume."})
}

func (h *Helper) Dispose() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disposed = true
}

func (h *Helper) newPurchase(sku, itemType, developerPayload string) *iab.Purchase {
	if itemType == "" {
		itemType = iab.ItemTypeInApp
	}
	return &iab.Purchase{
		OrderID:          uuid.NewString(),
		PackageName:      h.packageName,
		Sku:              sku,
		PurchaseTime:     time.Now().UnixMilli(),
		PurchaseState:    0,
		Token:            newToken(),
		DeveloperPayload: developerPayload,
		Signature:        newToken(),
		ItemType:         itemType,
	}
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(errors.Wrap(err, "failed to generate token"))
	}
	return base58.Encode(buf)
}

var _ iab.Helper = (*Helper)(nil)
