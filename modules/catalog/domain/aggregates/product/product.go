package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	id          int64
	name        string
	description string
	price       decimal.Decimal
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

func New(name, description string, price decimal.Decimal) Product {
	return Product{
		name:        name,
		description: description,
		price:       price,
		isActive:    true,
	}
}

func Hydrate(
	id int64,
	name, description string,
	price decimal.Decimal,
	isActive bool,
	createdAt, updatedAt time.Time,
) Product {
	return Product{
		id:          id,
		name:        name,
		description: description,
		price:       price,
		isActive:    isActive,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (p Product) ID() int64              { return p.id }
func (p Product) Name() string           { return p.name }
func (p Product) Description() string    { return p.description }
func (p Product) Price() decimal.Decimal { return p.price }
func (p Product) IsActive() bool         { return p.isActive }
func (p Product) CreatedAt() time.Time   { return p.createdAt }
func (p Product) UpdatedAt() time.Time   { return p.updatedAt }

func (p Product) SetName(name string) Product {
	p.name = name
	return p
}

func (p Product) SetDescription(description string) Product {
	p.description = description
	return p
}

func (p Product) SetPrice(price decimal.Decimal) Product {
	p.price = price
	return p
}

func (p Product) SetActive(active bool) Product {
	p.isActive = active
	return p
}

// PriceFloat is the nearest float64 to the stored decimal price.
func (p Product) PriceFloat() float64 {
	f, _ := p.price.Float64()
	return f
}
