package repository

import (
	"context"
	"time"

	"vendora/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// GetForUpdate retrieves a product inside the given transaction with a
	// row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.Product, error)

	// DecrementStock reduces stock by qty within the transaction. It returns
	// model.ErrOutOfStock if the remaining stock is insufficient.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, qty int) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetForUpdate retrieves an order by ID inside the transaction with a
	// row lock held.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// GetByTxRefForUpdate retrieves an order by its gateway correlation
	// reference inside the transaction with a row lock held. Returns
	// (nil, nil) when no order carries the reference.
	GetByTxRefForUpdate(ctx context.Context, tx pgx.Tx, txRef string) (*model.Order, error)

	// GetItems retrieves the items of an order inside the transaction.
	GetItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error)

	// UpdateStatus sets the order status and failure reason within the transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.Status, reason string) error
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Exists reports whether the user id is known.
	Exists(ctx context.Context, id string) (bool, error)

	// ClearCart empties the user's persisted cart within the transaction.
	ClearCart(ctx context.Context, tx pgx.Tx, userID string) error
}

// WalletRepository defines the interface for wallet balances and their
// append-only entry logs. Balance reads inside a transaction take a row
// lock so that the check and the write cannot interleave with a concurrent
// mutation.
type WalletRepository interface {
	// GetBalanceForUpdate reads the wallet balance with a row lock held.
	GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind) (float64, error)

	// SetBalance writes the wallet balance within the transaction.
	SetBalance(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, balance float64) error

	// InsertEntry appends a wallet entry. It reports inserted=false when an
	// entry with the same (user, wallet, reference) already exists, in which
	// case nothing was written.
	InsertEntry(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (inserted bool, err error)

	// GetEntry retrieves a single entry by its reference inside the
	// transaction. Returns (nil, nil) when no entry carries the reference.
	GetEntry(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference string) (*model.WalletEntry, error)

	// UpdateEntryStatus sets the settlement status of an existing entry.
	UpdateEntryStatus(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference, status string) error

	// DeleteEntry removes an entry from the log. Used only by withdrawal
	// compensation, which must erase the pending record it created.
	DeleteEntry(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference string) error

	// ListEntries returns the full entry log for a wallet, oldest first.
	ListEntries(ctx context.Context, userID string, wallet model.WalletKind) ([]model.WalletEntry, error)

	// CreateTopUp persists a pending top-up intent.
	CreateTopUp(ctx context.Context, tx pgx.Tx, topup *model.TopUp) error

	// GetTopUpForUpdate retrieves a top-up intent by tx_ref with a row lock
	// held. Returns (nil, nil) when no intent carries the reference.
	GetTopUpForUpdate(ctx context.Context, tx pgx.Tx, txRef string) (*model.TopUp, error)

	// UpdateTopUpStatus sets the status of a top-up intent.
	UpdateTopUpStatus(ctx context.Context, tx pgx.Tx, txRef, status string) error
}

// WithdrawalRepository defines the interface for payout saga intent records.
type WithdrawalRepository interface {
	// Create inserts a new withdrawal intent within the transaction.
	Create(ctx context.Context, tx pgx.Tx, w *model.Withdrawal) error

	// GetForUpdate retrieves an intent by ID with a row lock held.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Withdrawal, error)

	// SetBankCode records the resolved bank code on an intent.
	SetBankCode(ctx context.Context, tx pgx.Tx, id uuid.UUID, code string) error

	// UpdateState sets the saga state and failure reason within the transaction.
	UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state model.WithdrawalState, reason string) error

	// ListStale returns intents in the given state last updated before the cutoff.
	ListStale(ctx context.Context, state model.WithdrawalState, cutoff time.Time) ([]model.Withdrawal, error)
}
