package iab

import (
	"errors"
	"strconv"
)

var (
	// ErrNoKey is returned by factories when the RSA public key is empty.
	ErrNoKey = errors.New("iab: rsa public key is empty")
)

// Response codes mirrored from the provider's billing protocol.
const (
	ResponseOK                = 0
	ResponseUserCancelled     = 1
	ResponseBillingUnavailble = 3
	ResponseItemUnavailable   = 4
	ResponseDeveloperError    = 5
	ResponseError             = 6
	ResponseItemAlreadyOwned  = 7
	ResponseItemNotOwned      = 8
)

// Item types understood by the provider.
const (
	ItemTypeInApp = "inapp"
	ItemTypeSubs  = "subs"
)

// Activity is an opaque handle to the host UI surface the purchase flow
// attaches to. The helper never inspects it; it only passes it through to
// the provider binding.
type Activity interface{}

// Result is the outcome the provider reports for an asynchronous operation.
type Result struct {
	Response int
	Message  string
}

func (r Result) IsSuccess() bool { return r.Response == ResponseOK }
func (r Result) IsFailure() bool { return !r.IsSuccess() }

// ResponseCode returns the provider response as a string, the form host
// rejections carry it in.
func (r Result) ResponseCode() string { return strconv.Itoa(r.Response) }

func (r Result) String() string {
	return r.Message + " (response: " + r.ResponseCode() + ")"
}

type (
	// SetupFinishedListener receives the outcome of StartSetup.
	SetupFinishedListener func(result Result)

	// PurchaseFinishedListener receives the outcome of a purchase flow.
	// purchase is nil unless result.IsSuccess().
	PurchaseFinishedListener func(result Result, purchase *Purchase)

	// QueryInventoryFinishedListener receives the outcome of an inventory
	// refresh. inv is nil unless result.IsSuccess().
	QueryInventoryFinishedListener func(result Result, inv *Inventory)

	// ConsumeFinishedListener receives the outcome of a consume.
	ConsumeFinishedListener func(purchase *Purchase, result Result)
)

// Helper is the bound IAB service. Implementations perform their own
// background work and invoke listeners on the host dispatch thread.
//
// At most one purchase flow may be in flight per helper; a second
// LaunchPurchaseFlow while one is pending is rejected by the provider.
type Helper interface {
	// StartSetup binds the billing service and reports readiness.
	StartSetup(listener SetupFinishedListener)

	// LaunchPurchaseFlow opens the provider purchase UI for one sku. A
	// non-nil error means the flow could not be launched at all and the
	// listener will never fire.
	LaunchPurchaseFlow(act Activity, sku, itemType, developerPayload string, listener PurchaseFinishedListener) error

	// QueryInventoryAsync refreshes owned purchases and, when
	// querySkuDetails is set, catalog details for the given skus.
	QueryInventoryAsync(querySkuDetails bool, skus []string, listener QueryInventoryFinishedListener)

	// ConsumeAsync marks a purchase as consumed so it can be bought again.
	ConsumeAsync(purchase *Purchase, listener ConsumeFinishedListener)

	// Dispose releases the service binding. The helper must not be used
	// afterwards.
	Dispose()
}

// HelperFactory constructs a helper bound with the given signing key.
type HelperFactory func(rsaPublicKey string) (Helper, error)
