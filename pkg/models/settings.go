package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreSettingsID is the fixed primary key of the single settings row.
const StoreSettingsID uint = 1

type StoreSettings struct {
	ID            uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UpiID         string          `gorm:"column:upi_id;type:varchar(256)" json:"upi_id"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delivery_fee"`
	IsStoreOpen   bool            `gorm:"not null" json:"is_store_open"`
	BannerMessage string          `gorm:"type:varchar(500)" json:"banner_message"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (StoreSettings) TableName() string {
	return "store_settings"
}

// Tables is the migration set, in dependency order.
var Tables = []interface{}{
	&Category{},
	&Product{},
	&ProductImage{},
	&CustomizationAttribute{},
	&User{},
	&Order{},
	&OrderItem{},
	&OrderItemCustomization{},
	&StoreSettings{},
}
