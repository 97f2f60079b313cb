package checkout

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/types"
)

var (
	zipCodePattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	statePattern   = regexp.MustCompile(`^[A-Za-z]{2}$`)

	addressValidator = newAddressValidator()
)

// RegisterAddressValidations installs the zipcode_br and uf rules on v.
func RegisterAddressValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("zipcode_br", func(fl validator.FieldLevel) bool {
		return zipCodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	}); err != nil {
		return fmt.Errorf("register zipcode_br: %w", err)
	}
	if err := v.RegisterValidation("uf", func(fl validator.FieldLevel) bool {
		return statePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	}); err != nil {
		return fmt.Errorf("register uf: %w", err)
	}
	return nil
}

func newAddressValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	if err := RegisterAddressValidations(v); err != nil {
		panic(err)
	}
	return v
}

// ValidateShippingAddress normalizes the address and checks it structurally.
// A failure carries a field -> message map in its details.
func ValidateShippingAddress(addr types.ShippingAddress) (types.ShippingAddress, error) {
	normalized := addr.Normalize()
	if err := addressValidator.Struct(normalized); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return normalized, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
		}
		details := make(map[string]string, len(errs))
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = AddressMessage(fieldErr)
		}
		return normalized, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping address").WithDetails(details)
	}
	return normalized, nil
}

// AddressMessage renders a readable message for an address rule failure.
func AddressMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "uf":
		return "must be a 2-letter state code"
	case "zipcode_br":
		return "must match 00000-000"
	}
	return "is invalid"
}
