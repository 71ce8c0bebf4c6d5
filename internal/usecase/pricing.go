package usecase

import "fmt"

const (
	// VAT, percent of subtotal.
	taxRatePercent = 10

	// Flat collect-on-delivery fee in VND. Online payments ship free.
	codShippingFee = 30000

	PaymentMethodCOD = "cod"
)

// PricedLine is one resolved order line: the variant price has already been
// chosen over the product price where a variant applies.
type PricedLine struct {
	ProductID int64
	VariantID *int64
	Name      string
	SKU       string
	Image     string
	UnitPrice int64
	Quantity  int64
	Subtotal  int64
}

// Quote is the monetary breakdown of an order. All amounts are whole VND.
type Quote struct {
	Subtotal     int64
	Tax          int64
	ShippingCost int64
	Discount     int64
	Total        int64
}

// PriceOrder computes the quote for a set of resolved lines.
// Pure; the only inputs are the lines and the payment method.
func PriceOrder(lines []PricedLine, paymentMethod string) (Quote, error) {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * l.Quantity
	}

	// round half up to the nearest whole VND
	tax := (subtotal*taxRatePercent + 50) / 100

	var shipping int64
	if paymentMethod == PaymentMethodCOD {
		shipping = codShippingFee
	}

	// Extension point for promotions; always zero today.
	var discount int64

	total := subtotal + tax + shipping - discount
	if total < 0 {
		// A negative total is a bug in the caller, not a user error.
		return Quote{}, fmt.Errorf("negative order total %d (subtotal=%d tax=%d shipping=%d discount=%d)",
			total, subtotal, tax, shipping, discount)
	}

	return Quote{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Discount:     discount,
		Total:        total,
	}, nil
}
