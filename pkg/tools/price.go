package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/siteoptz/toolcatalog/pkg/constants"
)

// Plan is one pricing tier.
type Plan struct {
	Plan          string   `json:"plan" yaml:"plan"`
	PricePerMonth Price    `json:"price_per_month" yaml:"price_per_month"`
	Features      []string `json:"features,omitempty" yaml:"features,omitempty"`
}

// Price is a monthly price or the "contact for pricing" sentinel.
type Price struct {
	Amount  float64
	Contact bool
}

// ContactPrice is the sentinel price of plans without a public number.
var ContactPrice = Price{Contact: true}

// Amount returns a numeric Price.
func Amount(v float64) Price {
	return Price{Amount: v}
}

// String returns the display form of the price.
func (p Price) String() string {
	if p.Contact {
		return constants.ContactPricing
	}
	return strconv.FormatFloat(p.Amount, 'f', -1, 64)
}

// MarshalJSON encodes the price as a number or the contact string.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.Contact {
		return json.Marshal(constants.ContactPricing)
	}
	return json.Marshal(p.Amount)
}

// UnmarshalJSON accepts a number, a numeric string or any other string as
// the contact sentinel.
func (p *Price) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return p.set(v)
}

// MarshalYAML encodes the price for goccy/go-yaml.
func (p Price) MarshalYAML() (any, error) {
	if p.Contact {
		return constants.ContactPricing, nil
	}
	return p.Amount, nil
}

// UnmarshalYAML decodes the price for goccy/go-yaml.
func (p *Price) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	return p.set(v)
}

func (p *Price) set(v any) error {
	switch x := v.(type) {
	case nil:
		*p = Price{}
	case float64:
		*p = Amount(x)
	case int:
		*p = Amount(float64(x))
	case int64:
		*p = Amount(float64(x))
	case uint64:
		*p = Amount(float64(x))
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(x), "$")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*p = Amount(f)
		} else {
			*p = ContactPrice
		}
	default:
		return fmt.Errorf("price: unsupported value %v (%T)", v, v)
	}
	return nil
}
