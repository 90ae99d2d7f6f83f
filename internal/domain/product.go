package domain

import "time"

// Product represents a catalog item managed through the admin panel.
type Product struct {
	ID    int64   `gorm:"primaryKey" json:"id,string" form:"id"`
	Name  string  `gorm:"index" json:"name" form:"name"`
	Price float64 `json:"price" form:"price"` // price in main currency units, always > 0
	Stock int     `json:"stock" form:"stock"` // units on hand, never negative

	// Image is the display URL. ImageAssetID is set only when the image
	// was uploaded through the asset store; it is the handle used to
	// release the asset when the image is replaced or the product is
	// deleted. A raw URL supplied by the operator carries no asset id.
	Image        string `gorm:"size:1024" json:"image"`
	ImageAssetID string `gorm:"size:255" json:"image_asset_id,omitempty"`

	// Sales is an optional counter fed by an external system. It is
	// never synthesized locally; products without sales data rank last
	// in top-seller views.
	Sales *int64 `json:"sales,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}
