package domain

type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "DRAFT"
	ProductStatusPublished ProductStatus = "PUBLISHED"
	ProductStatusArchived  ProductStatus = "ARCHIVED"
)

type Product struct {
	ID         string
	Name       string
	PriceCents int64
	Status     ProductStatus
	SellerID   string
}

func (p Product) Purchasable() bool {
	return p.Status == ProductStatusPublished
}

// Seller carries the payout identity a leg needs; PayoutAccountID is the
// seller's connected account at the payment gateway.
type Seller struct {
	ID              string
	DisplayName     string
	PayoutAccountID string
	PayoutsEnabled  bool
}

func (s Seller) PayoutReady() bool {
	return s.PayoutsEnabled && s.PayoutAccountID != ""
}

// GroupItem is one cart line resolved against the catalog, with its subtotal
// fixed at grouping time.
type GroupItem struct {
	Product       Product
	Quantity      int
	SubtotalCents int64
}

// SellerGroup is the derived, non-persisted partition of a cart for one seller.
type SellerGroup struct {
	Seller Seller
	Items  []GroupItem
}

func (g SellerGroup) SubtotalCents() int64 {
	var total int64
	for _, item := range g.Items {
		total += item.SubtotalCents
	}
	return total
}
