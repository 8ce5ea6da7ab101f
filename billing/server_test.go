package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/bridge"
	bridgememory "github.com/myket-community/bridge-server/bridge/memory"
	"github.com/myket-community/bridge-server/iab"
	iabmemory "github.com/myket-community/bridge-server/iab/memory"
	"github.com/myket-community/bridge-server/model"
)

func newTestServer(t *testing.T) (*Server, *iabmemory.Helper, *bridgememory.Emitter) {
	t.Helper()

	helper := iabmemory.NewHelper("com.example.app")
	emitter := bridgememory.NewEmitter()
	server := NewServer(
		zap.NewNop(),
		iabmemory.NewFactory(helper),
		emitter,
		bridgememory.NewActivityProvider(),
	)
	return server, helper, emitter
}

func mustInitialize(t *testing.T, server *Server) {
	t.Helper()

	call := bridgememory.NewCall(model.Object{"rsaPublicKey": "KEY"})
	server.Initialize(call)

	data, ok := call.Resolved()
	require.True(t, ok)
	require.Equal(t, true, data["connected"])
}

func TestServer_ColdInitialize(t *testing.T) {
	server, _, _ := newTestServer(t)

	mustInitialize(t, server)

	call := bridgememory.NewCall(nil)
	server.GetConnectionState(call)
	data, ok := call.Resolved()
	require.True(t, ok)
	require.Equal(t, model.ConnectionStateConnected, data["state"])
}

func TestServer_InitializeMissingKey(t *testing.T) {
	server, _, _ := newTestServer(t)

	call := bridgememory.NewCall(model.Object{})
	server.Initialize(call)

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "RSA public key is required", message)
	require.Empty(t, code)
}

func TestServer_InitializeSetupFailure(t *testing.T) {
	server, helper, _ := newTestServer(t)
	helper.FailSetup(iab.Result{
		Response: iab.ResponseBillingUnavailble,
		Message:  "Billing service unavailable on device.",
	})

	call := bridgememory.NewCall(model.Object{"rsaPublicKey": "KEY"})
	server.Initialize(call)

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "Setup failed: Billing service unavailable on device.", message)
	require.Equal(t, "3", code)

	// Setup never completed, so nothing else may run.
	state := bridgememory.NewCall(nil)
	server.GetConnectionState(state)
	data, _ := state.Resolved()
	require.Equal(t, model.ConnectionStateNotInitialized, data["state"])
}

func TestServer_InitializeTwiceDoesNotRebind(t *testing.T) {
	server, _, _ := newTestServer(t)
	mustInitialize(t, server)

	call := bridgememory.NewCall(model.Object{"rsaPublicKey": "OTHER"})
	server.Initialize(call)

	data, ok := call.Resolved()
	require.True(t, ok)
	require.Equal(t, "Already initialized", data["message"])
}

func TestServer_PurchaseSuccess(t *testing.T) {
	server, _, emitter := newTestServer(t)
	mustInitialize(t, server)

	call := bridgememory.NewCall(model.Object{
		"productId": "gold_coin",
		"type":      "inapp",
		"payload":   "u123",
	})
	server.PurchaseProduct(call)

	require.Equal(t, []string{model.StatePurchaseBegin, model.StatePurchased}, emitter.States())
	require.True(t, call.KeptAlive())

	events := emitter.Events()
	require.Equal(t, "gold_coin", events[0].Data["productId"])
	require.Equal(t, "u123", events[0].Data["payload"])

	data, ok := call.Resolved()
	require.True(t, ok)
	require.Equal(t, model.StatePurchased, data["state"])

	purchase, ok := data["purchase"].(model.Object)
	require.True(t, ok)
	require.Equal(t, "gold_coin", purchase["productId"])
	require.Equal(t, "u123", purchase["payload"])
	require.Equal(t, "com.example.app", purchase["packageName"])
	require.NotEmpty(t, purchase["purchaseToken"])
	require.NotEmpty(t, purchase["orderId"])

	// The terminal event carries the full purchase record, not the request
	// context.
	require.Equal(t, purchase, events[1].Data["purchase"])
}

func TestServer_PurchaseUserCancelled(t *testing.T) {
	server, helper, emitter := newTestServer(t)
	mustInitialize(t, server)

	helper.FailPurchase(iab.Result{
		Response: iab.ResponseUserCancelled,
		Message:  "Error: User cancelled.",
	})

	call := bridgememory.NewCall(model.Object{"productId": "gold_coin"})
	server.PurchaseProduct(call)

	require.Equal(t, []string{model.StatePurchaseBegin, model.StateCancelled}, emitter.States())

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "Purchase failed: Error: User cancelled.", message)
	require.Equal(t, model.StateCancelled, code)
}

func TestServer_PurchaseOtherFailure(t *testing.T) {
	server, helper, emitter := newTestServer(t)
	mustInitialize(t, server)

	helper.FailPurchase(iab.Result{
		Response: iab.ResponseError,
		Message:  "Network error",
	})

	call := bridgememory.NewCall(model.Object{"productId": "gold_coin"})
	server.PurchaseProduct(call)

	// The event tag stays CANCELLED even though the rejection code is
	// FAILED.
	require.Equal(t, []string{model.StatePurchaseBegin, model.StateCancelled}, emitter.States())

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "Purchase failed: Network error", message)
	require.Equal(t, model.StateFailed, code)
}

func TestServer_PurchaseRequiresProductID(t *testing.T) {
	server, _, emitter := newTestServer(t)
	mustInitialize(t, server)

	call := bridgememory.NewCall(model.Object{})
	server.PurchaseProduct(call)

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "productId is required", message)
	require.Empty(t, code)
	require.Empty(t, emitter.Events())
}

func TestServer_PurchaseDefaultsType(t *testing.T) {
	server, _, _ := newTestServer(t)
	mustInitialize(t, server)

	call := bridgememory.NewCall(model.Object{"productId": "gold_coin"})
	server.PurchaseProduct(call)

	data, ok := call.Resolved()
	require.True(t, ok)
	purchase := data["purchase"].(model.Object)
	require.Equal(t, iab.ItemTypeInApp, purchase["itemType"])
	require.Equal(t, "", purchase["payload"])
}

func TestServer_ConsumeSuccess(t *testing.T) {
	server, helper, emitter := newTestServer(t)
	mustInitialize(t, server)

	token := helper.GrantPurchase("gold_coin", iab.ItemTypeInApp, "")

	call := bridgememory.NewCall(model.Object{"token": token})
	server.ConsumeProduct(call)

	data, ok := call.Resolved()
	require.True(t, ok)
	require.Equal(t, model.StateConsumed, data["state"])
	require.Equal(t, true, data["consumed"])
	require.True(t, call.KeptAlive())

	// Consume outcomes never hit the event channel.
	require.Empty(t, emitter.Events())

	// Consumed purchases are gone from the inventory.
	again := bridgememory.NewCall(model.Object{"token": token})
	server.ConsumeProduct(again)
	message, code, ok := again.Rejected()
	require.True(t, ok)
	require.Equal(t, "Purchase with given token not found", message)
	require.Equal(t, model.StateFailed, code)
}

func TestServer_ConsumeUnknownToken(t *testing.T) {
	server, _, _ := newTestServer(t)
	mustInitialize(t, server)

	call := bridgememory.NewCall(model.Object{"token": "ghost"})
	server.ConsumeProduct(call)

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "Purchase with given token not found", message)
	require.Equal(t, model.StateFailed, code)
}

func TestServer_ConsumeRequiresToken(t *testing.T) {
	server, _, _ := newTestServer(t)
	mustInitialize(t, server)

	call := bridgememory.NewCall(model.Object{})
	server.ConsumeProduct(call)

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "token is required", message)
	require.Equal(t, model.StateFailed, code)
}

func TestServer_ConsumeFailure(t *testing.T) {
	server, helper, _ := newTestServer(t)
	mustInitialize(t, server)

	token := helper.GrantPurchase("gold_coin", iab.ItemTypeInApp, "")
	helper.FailConsume(iab.Result{Response: iab.ResponseError, Message: "remote exception"})

	call := bridgememory.NewCall(model.Object{"token": token})
	server.ConsumeProduct(call)

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "Consume failed: remote exception", message)
	require.Equal(t, model.StateFailed, code)
}

func TestServer_GetProductsPreservesOrderAndSkipsUnknown(t *testing.T) {
	server, helper, _ := newTestServer(t)
	mustInitialize(t, server)

	helper.AddCatalogItem("a", iab.ItemTypeInApp, decimal.NewFromInt(1000), "A", "first")
	helper.AddCatalogItem("c", iab.ItemTypeInApp, decimal.NewFromInt(3000), "C", "third")

	call := bridgememory.NewCall(model.Object{"skus": []string{"a", "b", "c"}})
	server.GetProducts(call)

	data, ok := call.Resolved()
	require.True(t, ok)

	products := data["products"].([]model.Object)
	require.Len(t, products, 2)
	require.Equal(t, "a", products[0]["sku"])
	require.Equal(t, "c", products[1]["sku"])
	require.Equal(t, "1000 Rials", products[0]["price"])
}

func TestServer_GetProductsEmptySkus(t *testing.T) {
	server, _, _ := newTestServer(t)
	mustInitialize(t, server)

	call := bridgememory.NewCall(nil)
	server.GetProducts(call)

	data, ok := call.Resolved()
	require.True(t, ok)
	require.Empty(t, data["products"])
}

func TestServer_GetProductsQueryFailure(t *testing.T) {
	server, helper, _ := newTestServer(t)
	mustInitialize(t, server)

	helper.FailQueries(iab.Result{Response: iab.ResponseError, Message: "remote exception"})

	call := bridgememory.NewCall(model.Object{"skus": []string{"a"}})
	server.GetProducts(call)

	message, code, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "Query failed: remote exception", message)
	require.Equal(t, "6", code)
}

func TestServer_GetPurchaseInfo(t *testing.T) {
	server, helper, _ := newTestServer(t)
	mustInitialize(t, server)

	token := helper.GrantPurchase("gold_coin", iab.ItemTypeInApp, "u123")

	call := bridgememory.NewCall(nil)
	server.GetPurchaseInfo(call)

	data, ok := call.Resolved()
	require.True(t, ok)

	purchases := data["purchases"].([]model.Object)
	require.Len(t, purchases, 1)
	require.Equal(t, "gold_coin", purchases[0]["productId"])
	require.Equal(t, token, purchases[0]["purchaseToken"])
	require.Equal(t, "u123", purchases[0]["payload"])
}

func TestServer_OperationsRequireInitialize(t *testing.T) {
	server, _, _ := newTestServer(t)

	for _, tc := range []struct {
		name string
		code string
		run  func(bridge.Call)
	}{
		{name: "purchase", code: "", run: server.PurchaseProduct},
		{name: "consume", code: model.StateFailed, run: server.ConsumeProduct},
		{name: "getProducts", code: "", run: server.GetProducts},
		{name: "getPurchaseInfo", code: "", run: server.GetPurchaseInfo},
	} {
		t.Run(tc.name, func(t *testing.T) {
			call := bridgememory.NewCall(model.Object{
				"productId": "x",
				"token":     "x",
			})
			tc.run(call)

			message, code, ok := call.Rejected()
			require.True(t, ok)
			require.Equal(t, "Billing not initialized", message)
			require.Equal(t, tc.code, code)
		})
	}
}

func TestServer_DisconnectIsIdempotent(t *testing.T) {
	server, helper, _ := newTestServer(t)
	mustInitialize(t, server)

	first := bridgememory.NewCall(nil)
	server.Disconnect(first)
	data, ok := first.Resolved()
	require.True(t, ok)
	require.Equal(t, true, data["disconnected"])
	require.True(t, helper.Disposed())

	// A second disconnect with nothing bound still resolves.
	second := bridgememory.NewCall(nil)
	server.Disconnect(second)
	data, ok = second.Resolved()
	require.True(t, ok)
	require.Equal(t, true, data["disconnected"])
}

func TestServer_DisconnectThenOperationRejects(t *testing.T) {
	server, _, _ := newTestServer(t)
	mustInitialize(t, server)

	server.Disconnect(bridgememory.NewCall(nil))

	call := bridgememory.NewCall(model.Object{"productId": "gold_coin"})
	server.PurchaseProduct(call)

	message, _, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "Billing not initialized", message)

	// getConnectionState keeps working.
	state := bridgememory.NewCall(nil)
	server.GetConnectionState(state)
	data, _ := state.Resolved()
	require.Equal(t, model.ConnectionStateNotInitialized, data["state"])
}

func TestServer_ReinitializeAfterDisconnect(t *testing.T) {
	server, _, _ := newTestServer(t)
	mustInitialize(t, server)

	server.Disconnect(bridgememory.NewCall(nil))
	mustInitialize(t, server)
}

func TestServer_OnHostDestroyReleasesHelper(t *testing.T) {
	server, helper, _ := newTestServer(t)
	mustInitialize(t, server)

	server.OnHostDestroy()
	require.True(t, helper.Disposed())

	call := bridgememory.NewCall(model.Object{"productId": "gold_coin"})
	server.PurchaseProduct(call)
	message, _, ok := call.Rejected()
	require.True(t, ok)
	require.Equal(t, "Billing not initialized", message)
}

func TestServer_DispatchRoutesEveryMethod(t *testing.T) {
	server, _, _ := newTestServer(t)

	for _, method := range []string{
		MethodInitialize,
		MethodPurchaseProduct,
		MethodConsumeProduct,
		MethodGetProducts,
		MethodGetPurchaseInfo,
		MethodGetConnectionState,
		MethodDisconnect,
	} {
		call := bridgememory.NewCall(nil)
		require.True(t, server.Dispatch(method, call))
		require.True(t, call.Settled(), method)
	}

	require.False(t, server.Dispatch("unknown", bridgememory.NewCall(nil)))
}
