package notifications

import "github.com/curiango/curiango/internal/db/models"

// Built-in notification templates, used when the parameter store has no
// operator-supplied override. Placeholders: {{ NAME }},
// {{ ASSET_DESCRIPTION }}, {{ DATE }}.
const (
	defaultAllocationSubject = "Asset Allocated - {{ ASSET_DESCRIPTION }}"

	defaultAllocationBody = `Hello {{ NAME }},

An asset has been allocated to you:

Asset: {{ ASSET_DESCRIPTION }}
Allocation date: {{ DATE }}

Attached you will find the responsibility term, which must be signed and
returned to the responsible department.

Regards,
Asset Management System`

	defaultReturnSubject = "Asset Returned - {{ ASSET_DESCRIPTION }}"

	defaultReturnBody = `Hello {{ NAME }},

The asset that was under your responsibility has been returned:

Asset: {{ ASSET_DESCRIPTION }}
Return date: {{ DATE }}

This asset is no longer under your responsibility.

Regards,
Asset Management System`
)

func ptr(s string) *string { return &s }

// DefaultParameters returns the notification template seed entries written to
// the parameter store on startup when the keys do not exist yet.
func DefaultParameters() []models.Parameter {
	return []models.Parameter{
		{
			Key:         models.ParamAllocationSubject,
			Value:       ptr(defaultAllocationSubject),
			Kind:        models.ParameterEmail,
			Description: ptr("Subject of the asset allocation email"),
			Active:      true,
		},
		{
			Key:         models.ParamAllocationBody,
			Value:       ptr(defaultAllocationBody),
			Kind:        models.ParameterEmail,
			Description: ptr("Body of the asset allocation email"),
			Active:      true,
		},
		{
			Key:         models.ParamReturnSubject,
			Value:       ptr(defaultReturnSubject),
			Kind:        models.ParameterEmail,
			Description: ptr("Subject of the asset return email"),
			Active:      true,
		},
		{
			Key:         models.ParamReturnBody,
			Value:       ptr(defaultReturnBody),
			Kind:        models.ParameterEmail,
			Description: ptr("Body of the asset return email"),
			Active:      true,
		},
	}
}
