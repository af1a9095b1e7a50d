package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductStandard ProductType = "STANDARD"
	ProductCustom   ProductType = "CUSTOM"
)

type InputType string

const (
	InputText InputType = "TEXT"
	InputFile InputType = "FILE"
)

type Category struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"type:varchar(1024)" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Product struct {
	ID             string                   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name           string                   `gorm:"type:varchar(200);not null" json:"name"`
	Slug           string                   `gorm:"type:varchar(200);not null;uniqueIndex" json:"slug"`
	Description    string                   `gorm:"type:text" json:"description"`
	ProductType    ProductType              `gorm:"type:varchar(16);not null;default:'STANDARD'" json:"product_type"`
	BasePrice      decimal.Decimal          `gorm:"type:decimal(12,2);not null" json:"base_price"`
	CompareAtPrice *decimal.Decimal         `gorm:"type:decimal(12,2)" json:"compare_at_price,omitempty"`
	HSNCode        string                   `gorm:"column:hsn_code;type:varchar(16)" json:"hsn_code"`
	GSTRate        decimal.Decimal          `gorm:"column:gst_rate;type:decimal(5,4);not null;default:0.18" json:"gst_rate"`
	IsActive       bool                     `gorm:"not null;index" json:"is_active"`
	CategoryID     *string                  `gorm:"type:varchar(36);index" json:"category_id,omitempty"`
	Category       *Category                `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images         []ProductImage           `gorm:"foreignKey:ProductID" json:"images"`
	Attributes     []CustomizationAttribute `gorm:"foreignKey:ProductID" json:"attributes"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// EffectivePrice is the price a buyer pays per unit: the compare-at price when
// it is set and lower than the base price, otherwise the base price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.CompareAtPrice != nil && p.CompareAtPrice.LessThan(p.BasePrice) {
		return *p.CompareAtPrice
	}
	return p.BasePrice
}

// PrimaryImageURL returns the first image by position, or "".
func (p *Product) PrimaryImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	first := p.Images[0]
	for _, img := range p.Images[1:] {
		if img.Position < first.Position {
			first = img
		}
	}
	return first.URL
}

type ProductImage struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProductID string `gorm:"type:varchar(36);not null;index" json:"product_id"`
	URL       string `gorm:"type:varchar(1024);not null" json:"url"`
	Alt       string `gorm:"type:varchar(200)" json:"alt"`
	Position  int    `gorm:"not null" json:"position"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

// CustomizationAttribute describes one buyer-fillable field of a CUSTOM product.
type CustomizationAttribute struct {
	ID               string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProductID        string           `gorm:"type:varchar(36);not null;index" json:"product_id"`
	Label            string           `gorm:"type:varchar(100);not null" json:"label"`
	InputType        InputType        `gorm:"type:varchar(8);not null" json:"input_type"`
	Required         bool             `gorm:"not null" json:"required"`
	AdditionalPrice  *decimal.Decimal `gorm:"type:decimal(12,2)" json:"additional_price,omitempty"`
	MinLength        *int             `json:"min_length,omitempty"`
	MaxLength        *int             `json:"max_length,omitempty"`
	MaxFileSizeMB    *int             `gorm:"column:max_file_size_mb" json:"max_file_size_mb,omitempty"`
	AllowedMIMETypes string           `gorm:"column:allowed_mime_types;type:varchar(255)" json:"allowed_mime_types"`
	Position         int              `gorm:"not null" json:"position"`
}

func (CustomizationAttribute) TableName() string {
	return "customization_attributes"
}

// MIMETypes splits AllowedMIMETypes into its entries.
func (a *CustomizationAttribute) MIMETypes() []string {
	if strings.TrimSpace(a.AllowedMIMETypes) == "" {
		return nil
	}
	parts := strings.Split(a.AllowedMIMETypes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
