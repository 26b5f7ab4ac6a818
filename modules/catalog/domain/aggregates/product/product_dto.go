package product

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/iota-catalog/pkg/constants"
)

var maxPrice = decimal.New(1, 8)

type CreateDTO struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Price       string `json:"price" validate:"required"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateDTO carries a partial update; nil fields are left unchanged.
type UpdateDTO struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	IsActive    *bool   `json:"is_active"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Price = strings.TrimSpace(d.Price)
}

// Ok validates the payload and returns field errors keyed by json name.
func (d *CreateDTO) Ok() (map[string]string, bool) {
	d.Normalize()
	errs := fieldErrors(constants.Validate.Struct(d))
	if d.Price != "" {
		if _, err := ParsePrice(d.Price); err != nil {
			errs["price"] = err.Error()
		}
	}
	return errs, len(errs) == 0
}

func (d *CreateDTO) ToEntity() (Product, error) {
	price, err := ParsePrice(d.Price)
	if err != nil {
		return Product{}, err
	}
	p := New(d.Name, d.Description, price)
	if d.IsActive != nil {
		p = p.SetActive(*d.IsActive)
	}
	return p, nil
}

func (d *UpdateDTO) Ok() (map[string]string, bool) {
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		d.Name = &name
	}
	errs := fieldErrors(constants.Validate.Struct(d))
	if d.Price != nil {
		if _, err := ParsePrice(strings.TrimSpace(*d.Price)); err != nil {
			errs["price"] = err.Error()
		}
	}
	return errs, len(errs) == 0
}

func (d *UpdateDTO) Apply(p Product) (Product, error) {
	if d.Name != nil {
		p = p.SetName(*d.Name)
	}
	if d.Description != nil {
		p = p.SetDescription(*d.Description)
	}
	if d.Price != nil {
		price, err := ParsePrice(strings.TrimSpace(*d.Price))
		if err != nil {
			return Product{}, err
		}
		p = p.SetPrice(price)
	}
	if d.IsActive != nil {
		p = p.SetActive(*d.IsActive)
	}
	return p, nil
}

// ParsePrice accepts a non-negative amount with at most two decimal places
// below 10^8, matching the numeric(10,2) column.
func ParsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errors.New("A valid number is required.")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, errors.New("Ensure this value is greater than or equal to 0.")
	}
	if !price.Equal(price.Truncate(2)) {
		return decimal.Decimal{}, errors.New("Ensure that there are no more than 2 decimal places.")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return decimal.Decimal{}, errors.New("Ensure that there are no more than 10 digits in total.")
	}
	return price, nil
}

func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["non_field_errors"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if fe.Field() == "IsActive" {
			field = "is_active"
		}
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required."
		case "max":
			out[field] = "Ensure this field has no more than " + fe.Param() + " characters."
		case "min":
			out[field] = "This field may not be blank."
		default:
			out[field] = fe.Error()
		}
	}
	return out
}
