package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending             OrderStatus = "PENDING"
	StatusPendingCOD          OrderStatus = "PENDING_COD"
	StatusPendingVerification OrderStatus = "PENDING_VERIFICATION"
	StatusPaymentConfirmed    OrderStatus = "PAYMENT_CONFIRMED"
	StatusProcessing          OrderStatus = "PROCESSING"
	StatusQualityCheck        OrderStatus = "QUALITY_CHECK"
	StatusReadyToShip         OrderStatus = "READY_TO_SHIP"
	StatusShipped             OrderStatus = "SHIPPED"
	StatusDelivered           OrderStatus = "DELIVERED"
	StatusCancelled           OrderStatus = "CANCELLED"
	StatusRefunded            OrderStatus = "REFUNDED"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusPendingCOD,
	StatusPendingVerification,
	StatusPaymentConfirmed,
	StatusProcessing,
	StatusQualityCheck,
	StatusReadyToShip,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the order's lifecycle. Nothing
// enforces it; admins may still move a terminal order elsewhere.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

type PaymentMethod string

const (
	PaymentCOD PaymentMethod = "COD"
	PaymentUPI PaymentMethod = "UPI"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentUPI
}

// InitialStatus is the status an order starts in for the given payment method.
func (m PaymentMethod) InitialStatus() OrderStatus {
	if m == PaymentCOD {
		return StatusPendingCOD
	}
	return StatusPendingVerification
}

type Order struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderNumber    string          `gorm:"type:varchar(32);not null;index" json:"order_number"`
	UserID         string          `gorm:"type:varchar(128);not null;index" json:"user_id"`
	User           *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ShippingName   string          `gorm:"type:varchar(100);not null" json:"shipping_name"`
	ShippingPhone  string          `gorm:"type:varchar(20);not null" json:"shipping_phone"`
	AddressLine1   string          `gorm:"type:varchar(200);not null" json:"address_line1"`
	AddressLine2   string          `gorm:"type:varchar(200)" json:"address_line2"`
	City           string          `gorm:"type:varchar(100);not null" json:"city"`
	State          string          `gorm:"type:varchar(64);not null" json:"state"`
	Pincode        string          `gorm:"type:varchar(6);not null" json:"pincode"`
	Landmark       string          `gorm:"type:varchar(200)" json:"landmark"`
	ContactEmail   string          `gorm:"type:varchar(254)" json:"contact_email"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TotalGST       decimal.Decimal `gorm:"column:total_gst;type:decimal(12,2);not null" json:"total_gst"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_cost"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"grand_total"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(8);not null" json:"payment_method"`
	TransactionID  string          `gorm:"type:varchar(64)" json:"transaction_id"`
	Status         OrderStatus     `gorm:"type:varchar(32);not null;index" json:"status"`
	TrackingNumber string          `gorm:"type:varchar(64)" json:"tracking_number"`
	CourierName    string          `gorm:"type:varchar(64)" json:"courier_name"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// NotifyEmail is where every email about the order goes: the address given
// at checkout, or the account email for orders placed without one.
func (o *Order) NotifyEmail() string {
	if o.ContactEmail != "" {
		return o.ContactEmail
	}
	if o.User != nil {
		return o.User.Email
	}
	return ""
}

// OrderItem is a snapshot of the product at order time. Later catalog edits never touch it.
type OrderItem struct {
	ID             string                   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID        string                   `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID      string                   `gorm:"type:varchar(36);not null;index" json:"product_id"`
	ProductName    string                   `gorm:"type:varchar(200);not null" json:"product_name"`
	ProductType    ProductType              `gorm:"type:varchar(16);not null" json:"product_type"`
	ProductSlug    string                   `gorm:"type:varchar(200)" json:"product_slug"`
	ImageURL       string                   `gorm:"type:varchar(1024)" json:"image_url"`
	UnitPrice      decimal.Decimal          `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity       int                      `gorm:"not null" json:"quantity"`
	GSTRate        decimal.Decimal          `gorm:"column:gst_rate;type:decimal(5,4);not null" json:"gst_rate"`
	LineTotal      decimal.Decimal          `gorm:"type:decimal(12,2);not null" json:"line_total"`
	GSTAmount      decimal.Decimal          `gorm:"column:gst_amount;type:decimal(12,2);not null" json:"gst_amount"`
	Position       int                      `gorm:"not null" json:"position"`
	Customizations []OrderItemCustomization `gorm:"foreignKey:OrderItemID" json:"customizations"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderItemCustomization captures a buyer supplied value for a customization
// attribute. File values are the hosted URL, stored verbatim.
type OrderItemCustomization struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderItemID string          `gorm:"type:varchar(36);not null;index" json:"order_item_id"`
	AttributeID string          `gorm:"type:varchar(36);not null" json:"attribute_id"`
	Label       string          `gorm:"type:varchar(100);not null" json:"label"`
	InputType   InputType       `gorm:"type:varchar(8);not null" json:"input_type"`
	Value       string          `gorm:"type:text" json:"value"`
	PriceDelta  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_delta"`
}

func (OrderItemCustomization) TableName() string {
	return "order_item_customizations"
}
