package iab

// Purchase is a provider-native purchase record.
type Purchase struct {
	OrderID          string
	PackageName      string
	Sku              string
	PurchaseTime     int64 // epoch ms
	PurchaseState    int
	Token            string
	DeveloperPayload string
	Signature        string
	ItemType         string
}

func (p *Purchase) Clone() *Purchase {
	clone := *p
	return &clone
}

// SkuDetails is a provider-native catalog entry. All fields come back as
// strings from the provider, price included (formatted in the user's
// currency).
type SkuDetails struct {
	Sku         string
	Type        string
	Price       string
	Title       string
	Description string
}

func (d *SkuDetails) Clone() *SkuDetails {
	clone := *d
	return &clone
}

// Inventory is the union of catalog entries and owned purchases returned by
// one QueryInventoryAsync call.
type Inventory struct {
	skuMap      map[string]*SkuDetails
	purchaseMap map[string]*Purchase
	order       []string
}

func NewInventory() *Inventory {
	return &Inventory{
		skuMap:      make(map[string]*SkuDetails),
		purchaseMap: make(map[string]*Purchase),
	}
}

func (inv *Inventory) AddSkuDetails(d *SkuDetails) {
	inv.skuMap[d.Sku] = d
}

func (inv *Inventory) AddPurchase(p *Purchase) {
	if _, ok := inv.purchaseMap[p.Sku]; !ok {
		inv.order = append(inv.order, p.Sku)
	}
	inv.purchaseMap[p.Sku] = p
}

// GetSkuDetails returns the catalog entry for sku, or nil when the provider
// returned no details for it.
func (inv *Inventory) GetSkuDetails(sku string) *SkuDetails {
	return inv.skuMap[sku]
}

func (inv *Inventory) GetPurchase(sku string) *Purchase {
	return inv.purchaseMap[sku]
}

// AllPurchases returns owned purchases in the order the provider listed
// them.
func (inv *Inventory) AllPurchases() []*Purchase {
	out := make([]*Purchase, 0, len(inv.order))
	for _, sku := range inv.order {
		out = append(out, inv.purchaseMap[sku])
	}
	return out
}

// AllSkuDetails returns every catalog entry in the inventory.
func (inv *Inventory) AllSkuDetails() []*SkuDetails {
	out := make([]*SkuDetails, 0, len(inv.skuMap))
	for _, d := range inv.skuMap {
		out = append(out, d)
	}
	return out
}
