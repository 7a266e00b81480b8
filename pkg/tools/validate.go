package tools

import (
	"fmt"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
)

// Validate checks the fields a record must carry before it may enter
// duplicate detection. It returns the first problem found as a
// *errors.ValidationError. A nil normalizer skips the category check.
func Validate(t Tool, n *normalize.Normalizer) error {
	switch {
	case t.ID == "":
		return errors.NewValidationError("id", t.ID, "missing required field")
	case t.Name == "":
		return errors.NewValidationError("name", t.Name, "missing required field")
	case t.Slug == "":
		return errors.NewValidationError("slug", t.Slug, "missing required field")
	case t.Description == "":
		return errors.NewValidationError("description", t.Description, "missing required field")
	case len(t.Name) > constants.MaxNameLength:
		return errors.NewValidationError("name", len(t.Name),
			fmt.Sprintf("longer than %d characters", constants.MaxNameLength))
	case t.Rating != nil && (*t.Rating < 0 || *t.Rating > constants.MaxRating):
		return errors.NewValidationError("rating", *t.Rating, "must be between 0 and 5")
	case t.ReviewCount != nil && *t.ReviewCount < 0:
		return errors.NewValidationError("reviewCount", *t.ReviewCount, "must not be negative")
	}
	if n != nil && !n.IsCategory(t.Category) {
		return errors.NewValidationError("category", t.Category, "not a taxonomy category")
	}
	return nil
}

// Warnings lists gaps that do not block a record but are worth logging.
func Warnings(t Tool) []string {
	var w []string
	if len(t.Pricing) == 0 || (len(t.Pricing) == 1 && t.Pricing[0].PricePerMonth.Contact) {
		w = append(w, "missing pricing information")
	}
	if len(t.Features) == 0 {
		w = append(w, "no features listed")
	}
	if t.Website == "" {
		w = append(w, "missing website")
	}
	if !t.HasTitle() {
		w = append(w, "missing SEO title")
	}
	return w
}
