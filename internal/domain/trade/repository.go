package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByParty finds the orders placed with a party
	FindByParty(ctx context.Context, partyID uuid.UUID) ([]Order, error)

	// FindAll returns every order ordered by creation time
	FindAll(ctx context.Context) ([]Order, error)

	// ExistsByNumber checks if an order number is taken for the given type
	ExistsByNumber(ctx context.Context, orderType OrderType, number string) (bool, error)

	// Create inserts a new order
	Create(ctx context.Context, order *Order) error

	// Save updates an order guarded by its version and increments it
	Save(ctx context.Context, order *Order) error
}

// PaymentApplicationRepository is the append-only store of applied payments
type PaymentApplicationRepository interface {
	// Create appends an application
	Create(ctx context.Context, app *PaymentApplication) error

	// FindByOrder returns the applications of an order in applied order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]PaymentApplication, error)

	// FindAll returns every application in applied order
	FindAll(ctx context.Context) ([]PaymentApplication, error)
}
