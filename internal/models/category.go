package models

// Category represents a transaction category
type Category struct {
	SyncEnvelope
	Name     string `gorm:"not null" json:"name" validate:"required"`
	IconName string `json:"icon_name"`
	ColorHex string `json:"color_hex" validate:"omitempty,hex_color"`
}

// EntityKind returns the sync kind for categories.
func (Category) EntityKind() Kind { return KindCategory }

// TableName returns the table name for Category.
func (Category) TableName() string { return "categories" }
