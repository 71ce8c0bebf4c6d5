package repository

import "context"

// TxRepos is the set of repositories bound to one transaction.
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	Users() UserRepository
}

// TransactionManager hides begin/commit/rollback from the usecases.
// Any error from fn rolls the whole unit of work back.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
