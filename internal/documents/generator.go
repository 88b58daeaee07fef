// Package documents generates the responsibility term a custodian signs when
// an asset is allocated to them. Template selection follows the asset
// category; templates come from the parameter store so operators can edit the
// wording without a deploy, with built-in defaults as fallback.
package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curiango/curiango/internal/db/models"
)

// parameterStore is the template source. Satisfied by
// repositories.ParameterRepository.
type parameterStore interface {
	GetByKey(ctx context.Context, key string) (*models.Parameter, error)
}

// Generator produces responsibility term documents.
type Generator struct {
	params   parameterStore
	renderer Renderer // nil means text-only output
}

// NewGenerator creates a Generator. renderer may be nil, in which case all
// documents are produced via the plain-text fallback.
func NewGenerator(params parameterStore, renderer Renderer) *Generator {
	return &Generator{params: params, renderer: renderer}
}

// Generate produces the responsibility term for the asset and custodian.
// PDF conversion failures degrade to the text fallback rather than failing:
// the caller always gets document bytes unless template resolution itself
// errors.
func (g *Generator) Generate(ctx context.Context, asset *models.Asset, custodian *models.Employee) ([]byte, error) {
	tmpl, err := g.template(ctx, asset.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve term template: %w", err)
	}

	html := substitute(tmpl, map[string]string{
		"NAME":              custodian.Name,
		"TAX_ID":            orDash(custodian.TaxID),
		"BADGE_NUMBER":      orDash(custodian.BadgeNumber),
		"EQUIPMENT_DETAILS": Describe(asset),
		"EQUIPMENT_VALUE":   formatValue(asset.Value),
		"ACCESSORIES":       accessories(asset),
		"STATUS":            StatusLabel(asset.Condition),
	})

	if g.renderer == nil {
		return FallbackText(html), nil
	}

	pdf, err := g.renderer.Render(ctx, html)
	if err != nil {
		slog.Warn("pdf renderer failed, falling back to text document",
			"asset_id", asset.ID, "error", err)
		return FallbackText(html), nil
	}
	return pdf, nil
}

// template returns the term template for the category: the parameter store
// value when present, the built-in default otherwise. Unrecognized categories
// fall back to the smartphone template, preserving long-standing behavior
// that downstream document tooling relies on.
func (g *Generator) template(ctx context.Context, category string) (string, error) {
	var key, builtin string
	switch category {
	case models.CategorySmartphone:
		key, builtin = models.ParamTermSmartphone, defaultTermTemplate
	case models.CategoryNotebook, models.CategoryDesktop:
		key, builtin = models.ParamTermNotebook, defaultTermTemplate
	case models.CategorySIMCard:
		key, builtin = models.ParamTermSIMCard, defaultSIMTermTemplate
	default:
		key, builtin = models.ParamTermSmartphone, defaultTermTemplate
	}

	param, err := g.params.GetByKey(ctx, key)
	if err != nil {
		return "", err
	}
	if param == nil || param.Value == nil || *param.Value == "" {
		return builtin, nil
	}
	return *param.Value, nil
}

// substitute replaces "{{ KEY }}" placeholders. Plain string replacement, not
// a template engine: operator-supplied templates must not be able to execute
// anything.
func substitute(tmpl string, vars map[string]string) string {
	out := tmpl
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{ "+key+" }}", value)
	}
	return out
}

func formatValue(value *float64) string {
	if value == nil {
		return "Not informed"
	}
	return fmt.Sprintf("$ %.2f", *value)
}

func accessories(asset *models.Asset) string {
	switch asset.Category {
	case models.CategorySmartphone:
		if d := asset.Details.Phone; d != nil && d.Accessories != nil && *d.Accessories != "" {
			return *d.Accessories
		}
	case models.CategoryNotebook, models.CategoryDesktop:
		if d := asset.Details.Computer; d != nil && d.Accessories != nil && *d.Accessories != "" {
			return *d.Accessories
		}
	}
	return "Not available"
}
