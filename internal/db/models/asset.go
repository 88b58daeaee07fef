// Package models - asset.go defines the Asset model and its per-category detail
// records (phone, computer, SIM card), along with the category and condition
// value sets enforced by the schema.
package models

import "time"

// Asset categories. Each asset has exactly one detail record in the side table
// matching its category.
const (
	CategorySmartphone = "smartphone"
	CategoryNotebook   = "notebook"
	CategoryDesktop    = "desktop"
	CategorySIMCard    = "sim_card"
)

// Asset conditions.
const (
	ConditionNew           = "new"
	ConditionUsed          = "used"
	ConditionDamaged       = "damaged"
	ConditionInMaintenance = "in_maintenance"
	ConditionInactive      = "inactive"
)

// ValidCategory reports whether s is one of the known asset categories.
func ValidCategory(s string) bool {
	switch s {
	case CategorySmartphone, CategoryNotebook, CategoryDesktop, CategorySIMCard:
		return true
	}
	return false
}

// ValidCondition reports whether s is one of the known asset conditions.
func ValidCondition(s string) bool {
	switch s {
	case ConditionNew, ConditionUsed, ConditionDamaged, ConditionInMaintenance, ConditionInactive:
		return true
	}
	return false
}

// Asset represents a tracked piece of equipment
type Asset struct {
	ID                int        `json:"id"`
	Category          string     `json:"category"`
	Condition         string     `json:"condition"`
	CurrentEmployeeID *int       `json:"current_employee_id,omitempty"` // Nullable: nil when the asset sits in stock
	BusinessUnitID    *int       `json:"business_unit_id,omitempty"`    // Always nil for SIM cards
	Value             *float64   `json:"value,omitempty"`
	AllocatedAt       *time.Time `json:"allocated_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Details AssetDetails `json:"details"` // Populated by the repository from the category side table
}

// IsAllocated reports whether the asset currently has a custodian.
func (a *Asset) IsAllocated() bool {
	return a.CurrentEmployeeID != nil
}

// AssetDetails holds the category-specific record for an asset. Exactly one of
// the pointers is non-nil, selected by Asset.Category.
type AssetDetails struct {
	Phone    *PhoneDetails    `json:"phone,omitempty"`
	Computer *ComputerDetails `json:"computer,omitempty"`
	SIMCard  *SIMCardDetails  `json:"sim_card,omitempty"`
}

// PhoneDetails holds smartphone-specific attributes
type PhoneDetails struct {
	AssetID     int     `json:"-"`
	BrandID     *int    `json:"brand_id,omitempty"`
	BrandName   *string `json:"brand,omitempty"` // Joined from brands; not a column of phones
	Model       *string `json:"model,omitempty"`
	IMEI        *string `json:"imei,omitempty"`
	Accessories *string `json:"accessories,omitempty"`
}

// ComputerDetails holds notebook/desktop-specific attributes
type ComputerDetails struct {
	AssetID      int     `json:"-"`
	Kind         string  `json:"kind"` // "notebook" or "desktop"
	AssetTag     *string `json:"asset_tag,omitempty"`
	BrandID      *int    `json:"brand_id,omitempty"`
	BrandName    *string `json:"brand,omitempty"` // Joined from brands
	Model        *string `json:"model,omitempty"`
	SerialNumber *string `json:"serial_number,omitempty"`
	OSVersion    *string `json:"os_version,omitempty"`
	CPU          *string `json:"cpu,omitempty"`
	Memory       *string `json:"memory,omitempty"`
	Storage      *string `json:"storage,omitempty"`
	Accessories  *string `json:"accessories,omitempty"`
}

// SIMCardDetails holds SIM-specific attributes
type SIMCardDetails struct {
	AssetID     int     `json:"-"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	CarrierID   *int    `json:"carrier_id,omitempty"`
	CarrierName *string `json:"carrier,omitempty"` // Joined from carriers
	LineType    *string `json:"line_type,omitempty"`
}
