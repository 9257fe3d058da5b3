package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// SaleLine is the pricing input of a sale distribution, in major units
type SaleLine struct {
	UnitSalePrice   decimal.Decimal
	UnitCostPrice   decimal.Decimal
	UnitFreightCost decimal.Decimal
	Quantity        int64
}

// Validate checks prices are non-negative and quantity positive
func (l SaleLine) Validate() error {
	if l.Quantity <= 0 {
		return shared.ErrInvalidInput.WithDetail("quantity must be positive, got %d", l.Quantity)
	}
	prices := []struct {
		name  string
		value decimal.Decimal
	}{
		{"unit sale price", l.UnitSalePrice},
		{"unit cost price", l.UnitCostPrice},
		{"unit freight cost", l.UnitFreightCost},
	}
	for _, p := range prices {
		if p.value.IsNegative() {
			return shared.ErrInvalidInput.WithDetail("%s cannot be negative", p.name)
		}
	}
	return nil
}

// Split is the fixed revenue split of one sale.
// Cost + Freight + Profit == Total exactly; Profit may be negative.
type Split struct {
	Total   valueobject.Money
	Cost    valueobject.Money
	Freight valueobject.Money
	Profit  valueobject.Money
}

// ComputeSplit divides a sale into cost, freight and profit shares.
// Cost and freight are rounded to minor units with banker's rounding and the
// profit share takes whatever remains of the rounded total.
func ComputeSplit(line SaleLine) (Split, error) {
	if err := line.Validate(); err != nil {
		return Split{}, err
	}
	qty := decimal.NewFromInt(line.Quantity)

	total, err := valueobject.RoundToMoney(line.UnitSalePrice.Mul(qty))
	if err != nil {
		return Split{}, err
	}
	cost, err := valueobject.RoundToMoney(line.UnitCostPrice.Mul(qty))
	if err != nil {
		return Split{}, err
	}
	freight, err := valueobject.RoundToMoney(line.UnitFreightCost.Mul(qty))
	if err != nil {
		return Split{}, err
	}

	return Split{
		Total:   total,
		Cost:    cost,
		Freight: freight,
		Profit:  total.Subtract(cost).Subtract(freight),
	}, nil
}

// IsLoss reports whether the sale lost money
func (s Split) IsLoss() bool {
	return s.Profit.IsNegative()
}

// Portion returns the share of the split that n of quantity units account for.
// Total, cost and freight are rounded half-to-even and profit takes the
// remainder, so Portion(quantity, quantity) is the split itself.
func (s Split) Portion(n, quantity int64) Split {
	if quantity <= 0 || n <= 0 {
		return Split{}
	}
	if n >= quantity {
		return s
	}
	part := func(m valueobject.Money) valueobject.Money {
		scaled := decimal.NewFromInt(m.Minor()).Mul(decimal.NewFromInt(n)).Div(decimal.NewFromInt(quantity))
		return valueobject.NewMoneyFromMinor(scaled.RoundBank(0).IntPart())
	}
	total, cost, freight := part(s.Total), part(s.Cost), part(s.Freight)
	return Split{
		Total:   total,
		Cost:    cost,
		Freight: freight,
		Profit:  total.Subtract(cost).Subtract(freight),
	}
}

// Subtract returns the share-by-share difference s - other
func (s Split) Subtract(other Split) Split {
	return Split{
		Total:   s.Total.Subtract(other.Total),
		Cost:    s.Cost.Subtract(other.Cost),
		Freight: s.Freight.Subtract(other.Freight),
		Profit:  s.Profit.Subtract(other.Profit),
	}
}
