package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Order and payment status are two separate fields on purpose:
// the gateway and the fulfillment side move independently.
type Order struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Number string `gorm:"type:varchar(64);not null;uniqueIndex" json:"number"`
	UserID int64  `gorm:"not null;index" json:"user_id"`

	ShippingFirstName string `gorm:"type:varchar(100)" json:"shipping_first_name"`
	ShippingLastName  string `gorm:"type:varchar(100)" json:"shipping_last_name"`
	ShippingCompany   string `gorm:"type:varchar(255)" json:"shipping_company"`
	ShippingAddress1  string `gorm:"type:varchar(255)" json:"shipping_address1"`
	ShippingAddress2  string `gorm:"type:varchar(255)" json:"shipping_address2"`
	ShippingCity      string `gorm:"type:varchar(100)" json:"shipping_city"`
	ShippingState     string `gorm:"type:varchar(100)" json:"shipping_state"`
	ShippingZip       string `gorm:"type:varchar(20)" json:"shipping_zip"`
	ShippingCountry   string `gorm:"type:varchar(100)" json:"shipping_country"`
	ShippingPhone     string `gorm:"type:varchar(20)" json:"shipping_phone"`

	BillingFirstName string `gorm:"type:varchar(100)" json:"billing_first_name"`
	BillingLastName  string `gorm:"type:varchar(100)" json:"billing_last_name"`
	BillingCompany   string `gorm:"type:varchar(255)" json:"billing_company"`
	BillingAddress1  string `gorm:"type:varchar(255)" json:"billing_address1"`
	BillingAddress2  string `gorm:"type:varchar(255)" json:"billing_address2"`
	BillingCity      string `gorm:"type:varchar(100)" json:"billing_city"`
	BillingState     string `gorm:"type:varchar(100)" json:"billing_state"`
	BillingZip       string `gorm:"type:varchar(20)" json:"billing_zip"`
	BillingCountry   string `gorm:"type:varchar(100)" json:"billing_country"`
	BillingPhone     string `gorm:"type:varchar(20)" json:"billing_phone"`

	PaymentMethod string        `gorm:"type:varchar(50);not null" json:"payment_method"`
	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`

	// Amounts are whole VND.
	Subtotal     int64 `gorm:"not null" json:"subtotal"`
	Tax          int64 `gorm:"not null" json:"tax"`
	ShippingCost int64 `gorm:"not null" json:"shipping_cost"`
	Discount     int64 `gorm:"not null" json:"discount"`
	Total        int64 `gorm:"not null" json:"total"`

	// Gateway correlation. Opaque to everything except webhook reconciliation.
	TransactionID  string     `gorm:"type:varchar(255)" json:"transaction_id,omitempty"`
	PaymentLinkID  string     `gorm:"type:varchar(255)" json:"payment_link_id,omitempty"`
	PayosOrderCode string     `gorm:"type:varchar(64);index" json:"payos_order_code,omitempty"`
	GatewayPayload string     `gorm:"type:text" json:"-"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`

	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// CanCancel reports whether a user cancellation is allowed.
// Only pending and processing orders may be cancelled.
func (o Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// CanRepay reports whether the order may be reset to a payable state.
func (o Order) CanRepay() bool {
	return o.Status == OrderStatusPending ||
		o.Status == OrderStatusCancelled ||
		o.PaymentStatus == PaymentStatusFailed
}

// Reconciled reports whether a successful payment has already been applied.
// Used to turn duplicate webhook deliveries into no-ops, including replays
// arriving after fulfillment has moved the order past processing.
func (o Order) Reconciled() bool {
	return o.PaymentStatus == PaymentStatusCompleted
}

func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}
