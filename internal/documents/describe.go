// describe.go builds the human-readable equipment strings embedded in
// responsibility documents and notification emails.
package documents

import (
	"fmt"

	"github.com/curiango/curiango/internal/db/models"
)

// Describe returns the full equipment description for an asset, used in the
// responsibility document body. Missing attributes render as "-".
func Describe(asset *models.Asset) string {
	switch asset.Category {
	case models.CategorySmartphone:
		d := asset.Details.Phone
		if d == nil {
			return "Smartphone - details not found"
		}
		return fmt.Sprintf("Smartphone %s %s - IMEI %s",
			orDash(d.BrandName), orDash(d.Model), orDash(d.IMEI))

	case models.CategoryNotebook, models.CategoryDesktop:
		d := asset.Details.Computer
		if d == nil {
			return "Computer - details not found"
		}
		kind := "Notebook"
		if d.Kind == models.CategoryDesktop {
			kind = "Desktop"
		}
		return fmt.Sprintf("%s %s %s - Asset tag %s",
			kind, orDash(d.BrandName), orDash(d.Model), orDash(d.AssetTag))

	case models.CategorySIMCard:
		d := asset.Details.SIMCard
		if d == nil {
			return "SIM card - details not found"
		}
		lineType := "Voice/Data"
		if d.LineType != nil && *d.LineType == "data" {
			lineType = "Data"
		}
		return fmt.Sprintf("SIM %s - Number %s - Type: %s",
			orDash(d.CarrierName), orDash(d.PhoneNumber), lineType)
	}

	return "Asset"
}

// ShortDescription returns a compact asset identifier for email subjects:
// the model for phones and computers, the line number for SIM cards, and a
// generic fallback when the detail record is missing.
func ShortDescription(asset *models.Asset) string {
	switch asset.Category {
	case models.CategorySmartphone:
		if d := asset.Details.Phone; d != nil && d.Model != nil && *d.Model != "" {
			return *d.Model
		}
		return fmt.Sprintf("Smartphone ID %d", asset.ID)
	case models.CategoryNotebook, models.CategoryDesktop:
		if d := asset.Details.Computer; d != nil && d.Model != nil && *d.Model != "" {
			return *d.Model
		}
		return fmt.Sprintf("Computer ID %d", asset.ID)
	case models.CategorySIMCard:
		if d := asset.Details.SIMCard; d != nil && d.PhoneNumber != nil && *d.PhoneNumber != "" {
			return *d.PhoneNumber
		}
		return fmt.Sprintf("SIM card ID %d", asset.ID)
	}
	return fmt.Sprintf("Asset ID %d", asset.ID)
}

// StatusLabel formats an asset condition for display in documents.
func StatusLabel(condition string) string {
	switch condition {
	case models.ConditionNew:
		return "New"
	case models.ConditionUsed:
		return "Used"
	case models.ConditionDamaged:
		return "Damaged"
	case models.ConditionInMaintenance:
		return "In maintenance"
	case models.ConditionInactive:
		return "Inactive"
	}
	return condition
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
