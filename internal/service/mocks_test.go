package service

import (
	"context"
	"time"

	"vendora/internal/gateway"
	"vendora/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// stubRunner runs the transaction body against a fixed pgx.Tx without a
// database. Commit/rollback behaviour is covered by the integration tests.
type stubRunner struct {
	tx pgx.Tx
}

func (r stubRunner) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return fn(r.tx)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// MockProductRepository is a mock implementation of repository.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.Product, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, qty int) error {
	args := m.Called(ctx, tx, id, qty)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByTxRefForUpdate(ctx context.Context, tx pgx.Tx, txRef string) (*model.Order, error) {
	args := m.Called(ctx, tx, txRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.Status, reason string) error {
	args := m.Called(ctx, tx, id, status, reason)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ClearCart(ctx context.Context, tx pgx.Tx, userID string) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind) (float64, error) {
	args := m.Called(ctx, tx, userID, wallet)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockWalletRepository) SetBalance(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, balance float64) error {
	args := m.Called(ctx, tx, userID, wallet, balance)
	return args.Error(0)
}

func (m *MockWalletRepository) InsertEntry(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (bool, error) {
	args := m.Called(ctx, tx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletRepository) GetEntry(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference string) (*model.WalletEntry, error) {
	args := m.Called(ctx, tx, userID, wallet, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletEntry), args.Error(1)
}

func (m *MockWalletRepository) UpdateEntryStatus(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference, status string) error {
	args := m.Called(ctx, tx, userID, wallet, reference, status)
	return args.Error(0)
}

func (m *MockWalletRepository) DeleteEntry(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference string) error {
	args := m.Called(ctx, tx, userID, wallet, reference)
	return args.Error(0)
}

func (m *MockWalletRepository) ListEntries(ctx context.Context, userID string, wallet model.WalletKind) ([]model.WalletEntry, error) {
	args := m.Called(ctx, userID, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WalletEntry), args.Error(1)
}

func (m *MockWalletRepository) CreateTopUp(ctx context.Context, tx pgx.Tx, topup *model.TopUp) error {
	args := m.Called(ctx, tx, topup)
	return args.Error(0)
}

func (m *MockWalletRepository) GetTopUpForUpdate(ctx context.Context, tx pgx.Tx, txRef string) (*model.TopUp, error) {
	args := m.Called(ctx, tx, txRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TopUp), args.Error(1)
}

func (m *MockWalletRepository) UpdateTopUpStatus(ctx context.Context, tx pgx.Tx, txRef, status string) error {
	args := m.Called(ctx, tx, txRef, status)
	return args.Error(0)
}

// MockWithdrawalRepository is a mock implementation of repository.WithdrawalRepository.
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, tx pgx.Tx, w *model.Withdrawal) error {
	args := m.Called(ctx, tx, w)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Withdrawal, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) SetBankCode(ctx context.Context, tx pgx.Tx, id uuid.UUID, code string) error {
	args := m.Called(ctx, tx, id, code)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state model.WithdrawalState, reason string) error {
	args := m.Called(ctx, tx, id, state, reason)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) ListStale(ctx context.Context, state model.WithdrawalState, cutoff time.Time) ([]model.Withdrawal, error) {
	args := m.Called(ctx, state, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Withdrawal), args.Error(1)
}

// MockGateway is a mock implementation of gateway.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.PaymentLink, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentLink), args.Error(1)
}

func (m *MockGateway) Verify(ctx context.Context, txRef string) (*gateway.VerifiedPayment, error) {
	args := m.Called(ctx, txRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.VerifiedPayment), args.Error(1)
}

func (m *MockGateway) Transfer(ctx context.Context, req gateway.TransferRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockWalletService is a mock implementation of WalletService.
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Credit(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (bool, error) {
	args := m.Called(ctx, tx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletService) Debit(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (bool, error) {
	args := m.Called(ctx, tx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletService) CreditSellerSale(ctx context.Context, tx pgx.Tx, sellerID, reference string, gross float64) (*model.WalletEntry, bool, error) {
	args := m.Called(ctx, tx, sellerID, reference, gross)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.WalletEntry), args.Bool(1), args.Error(2)
}

func (m *MockWalletService) ReverseSale(ctx context.Context, tx pgx.Tx, sellerID, orderRef string) (bool, string, error) {
	args := m.Called(ctx, tx, sellerID, orderRef)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockWalletService) InitiateTopUp(ctx context.Context, userID string, amount float64) (*model.TopUpResponse, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TopUpResponse), args.Error(1)
}

func (m *MockWalletService) ConfirmTopUp(ctx context.Context, txRef string, gatewayAmount float64) error {
	args := m.Called(ctx, txRef, gatewayAmount)
	return args.Error(0)
}

func (m *MockWalletService) FailTopUp(ctx context.Context, txRef, reason string) error {
	args := m.Called(ctx, txRef, reason)
	return args.Error(0)
}

func (m *MockWalletService) Entries(ctx context.Context, userID string, wallet model.WalletKind) ([]model.WalletEntry, error) {
	args := m.Called(ctx, userID, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WalletEntry), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) Finalize(ctx context.Context, txRef string, gatewayAmount float64) (FinalizeOutcome, error) {
	args := m.Called(ctx, txRef, gatewayAmount)
	return args.Get(0).(FinalizeOutcome), args.Error(1)
}

func (m *MockOrderService) Fail(ctx context.Context, txRef, reason string) error {
	args := m.Called(ctx, txRef, reason)
	return args.Error(0)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to model.Status) error {
	args := m.Called(ctx, id, to)
	return args.Error(0)
}

func (m *MockOrderService) Complete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) Reverse(ctx context.Context, id uuid.UUID) (*ReversalResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReversalResult), args.Error(1)
}

func (m *MockOrderService) Dispute(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDirectory is a mock implementation of bank.Directory.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Resolve(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

// recordingDedup is an in-memory cache.Dedup.
type recordingDedup struct {
	seen map[string]bool
}

func newRecordingDedup() *recordingDedup {
	return &recordingDedup{seen: make(map[string]bool)}
}

func (d *recordingDedup) Seen(_ context.Context, txRef string) bool { return d.seen[txRef] }
func (d *recordingDedup) Mark(_ context.Context, txRef string)      { d.seen[txRef] = true }
func (d *recordingDedup) Close() error                              { return nil }
