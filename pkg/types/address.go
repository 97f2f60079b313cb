package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the delivery address snapshot stored on an order as JSON.
type ShippingAddress struct {
	Street       string  `json:"street" validate:"required,min=3"`
	Number       string  `json:"number" validate:"required,min=1"`
	Complement   *string `json:"complement,omitempty"`
	Neighborhood string  `json:"neighborhood" validate:"required,min=2"`
	City         string  `json:"city" validate:"required,min=2"`
	State        string  `json:"state" validate:"required,uf"`
	ZipCode      string  `json:"zip_code" validate:"required,zipcode_br"`
}

// Normalize trims every field and upper-cases the state code.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Neighborhood = strings.TrimSpace(a.Neighborhood)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	if a.Complement != nil {
		trimmed := strings.TrimSpace(*a.Complement)
		if trimmed == "" {
			a.Complement = nil
		} else {
			a.Complement = &trimmed
		}
	}
	return a
}

// Metadata flattens the address for payment session metadata.
func (a ShippingAddress) Metadata() map[string]string {
	out := map[string]string{
		"street":       a.Street,
		"number":       a.Number,
		"neighborhood": a.Neighborhood,
		"city":         a.City,
		"state":        a.State,
		"zip_code":     a.ZipCode,
	}
	if a.Complement != nil {
		out["complement"] = *a.Complement
	}
	return out
}

// Value marshals the address into a JSON document.
func (a ShippingAddress) Value() (driver.Value, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("shipping address: marshal %w", err)
	}
	return string(payload), nil
}

// Scan decodes a JSON document into the address.
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}

	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("shipping address: unsupported scan type %T", value)
	}
	if strings.TrimSpace(raw) == "" {
		*a = ShippingAddress{}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), a); err != nil {
		return fmt.Errorf("shipping address: unmarshal %w", err)
	}
	return nil
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
