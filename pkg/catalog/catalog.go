// Package catalog holds the built-in rule table that adds the product image
// carousel to catalog.html: container and image CSS tweaks, the carousel
// navigation/indicator CSS, and the script-side timer registry and image
// helpers the carousel relies on.
package catalog

import (
	"github.com/ormasoftchile/catpatch/pkg/patch"
	"github.com/ormasoftchile/catpatch/pkg/schema"
)

// DefaultTarget is the document the bare command patches.
const DefaultTarget = "catalog.html"

// Rule names, in application order.
const (
	RuleProductImageContainer = "product-image-container"
	RuleProductImageFade      = "product-image-transition"
	RuleCarouselCSS           = "carousel-css"
	RuleCarouselTimers        = "carousel-timers"
	RuleClearCarouselTimers   = "clear-carousel-timers"
	RuleProductImagesHelper   = "product-images-helper"
)

// Rules returns a fresh copy of the carousel rule table.
func Rules() []patch.Rule {
	return []patch.Rule{
		{
			Name:        RuleProductImageContainer,
			Version:     1,
			Description: "make .product-image a positioned, clipping container for slides",
			Kind:        patch.KindReplace,
			Before:      productImageBefore,
			After:       productImageAfter,
		},
		{
			Name:        RuleProductImageFade,
			Version:     1,
			Description: "fade .product-image img between slides",
			Kind:        patch.KindReplace,
			Before:      productImageImgBefore,
			After:       productImageImgAfter,
		},
		{
			Name:        RuleCarouselCSS,
			Version:     1,
			Description: "carousel navigation buttons and slide indicators",
			Kind:        patch.KindInsert,
			Anchor:      productImageImgAfter + "\n",
			Content:     carouselCSS,
			Requires:    []string{RuleProductImageFade},
		},
		{
			Name:        RuleCarouselTimers,
			Version:     1,
			Description: "registry of running carousel intervals",
			Kind:        patch.KindInsert,
			Anchor:      filterElementsAnchor,
			Content:     carouselTimersJS,
			Marker:      "const carouselTimers",
		},
		{
			Name:        RuleClearCarouselTimers,
			Version:     1,
			Description: "clearCarouselTimers() stops and forgets every carousel interval",
			Kind:        patch.KindInsert,
			Anchor:      cacheFilterElementsAnchor,
			Content:     clearCarouselTimersJS,
			Marker:      "function clearCarouselTimers",
		},
		{
			Name:        RuleProductImagesHelper,
			Version:     1,
			Description: "getProductImages() collects unique sanitized image URLs for a product",
			Kind:        patch.KindInsert,
			Anchor:      productPrimaryImageAnchor,
			Content:     getProductImagesJS,
			Marker:      "function getProductImages",
		},
	}
}

var table = patch.MustTable(Rules())

// Table returns the validated carousel table.
func Table() *patch.Table { return table }

// Manifest exports the carousel table as a patchset manifest.
func Manifest() *schema.Manifest {
	return schema.FromRules("catalog-carousel", DefaultTarget, "Image carousel for the product catalog page", Rules())
}
