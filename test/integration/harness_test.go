package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"vendora/internal/bank"
	"vendora/internal/cache"
	"vendora/internal/events"
	"vendora/internal/gateway"
	"vendora/internal/metrics"
	"vendora/internal/model"
	"vendora/internal/repository"
	"vendora/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const webhookSecret = "whsec_integration"

// stubGateway is an in-process payment provider. Initiate always hands out a
// link; Verify and Transfer are scripted per test.
type stubGateway struct {
	mu          sync.Mutex
	verify      *gateway.VerifiedPayment
	verifyErr   error
	transferErr error
	transfers   []gateway.TransferRequest
}

func (g *stubGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.PaymentLink, error) {
	return &gateway.PaymentLink{Link: "https://pay.example/" + req.TxRef}, nil
}

func (g *stubGateway) Verify(_ context.Context, txRef string) (*gateway.VerifiedPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if g.verify != nil {
		return g.verify, nil
	}
	return &gateway.VerifiedPayment{TxRef: txRef, Status: "successful"}, nil
}

func (g *stubGateway) Transfer(_ context.Context, req gateway.TransferRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers = append(g.transfers, req)
	return g.transferErr
}

// harness wires real services over the test database, with the gateway
// stubbed out.
type harness struct {
	pool        *pgxpool.Pool
	gw          *stubGateway
	orders      service.OrderService
	wallets     service.WalletService
	payments    service.PaymentService
	withdrawals service.WithdrawalService
}

func newHarness(t *testing.T, pool *pgxpool.Pool) *harness {
	t.Helper()

	logger := zerolog.Nop()
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	walletRepo := repository.NewWalletRepository(pool, logger)
	withdrawalRepo := repository.NewWithdrawalRepository(pool, logger)
	runner := repository.NewTxRunner(pool, logger)

	gw := &stubGateway{}
	m := metrics.New(prometheus.NewRegistry())
	pub := events.NopPublisher{}

	walletSvc := service.NewWalletService(walletRepo, userRepo, runner, gw, "NGN", 0.10, logger)
	stock := service.NewStockReserver(productRepo, logger)
	orderSvc := service.NewOrderService(orderRepo, userRepo, walletSvc, stock, runner, gw, "NGN", pub, m, logger)
	paymentSvc := service.NewPaymentService(orderSvc, walletSvc, gw, cache.NopDedup{}, webhookSecret, m, logger)
	withdrawalSvc := service.NewWithdrawalService(
		withdrawalRepo, walletRepo, walletSvc, userRepo,
		bank.NewDirectory(bank.DefaultTable()), runner, gw, "NGN",
		15*time.Minute, pub, m, logger,
	)

	return &harness{
		pool:        pool,
		gw:          gw,
		orders:      orderSvc,
		wallets:     walletSvc,
		payments:    paymentSvc,
		withdrawals: withdrawalSvc,
	}
}

// SeedSellerWallet provisions a seller wallet with the given balance.
func SeedSellerWallet(t *testing.T, pool *pgxpool.Pool, userID string, balance float64) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO seller_wallets (user_id, balance) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance = $2`,
		userID, balance,
	)
	if err != nil {
		t.Fatalf("failed to seed seller wallet %s: %v", userID, err)
	}
}

func productStock(t *testing.T, pool *pgxpool.Pool, id string) int {
	t.Helper()

	var stock int
	err := pool.QueryRow(context.Background(),
		`SELECT stock FROM products WHERE id = $1`, id,
	).Scan(&stock)
	if err != nil {
		t.Fatalf("failed to read stock for %s: %v", id, err)
	}
	return stock
}

func orderStatus(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) model.Status {
	t.Helper()

	var status model.Status
	err := pool.QueryRow(context.Background(),
		`SELECT status FROM orders WHERE id = $1`, id,
	).Scan(&status)
	if err != nil {
		t.Fatalf("failed to read order status for %s: %v", id, err)
	}
	return status
}

func cartSize(t *testing.T, pool *pgxpool.Pool, userID string) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT jsonb_array_length(cart) FROM users WHERE id = $1`, userID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("failed to read cart for %s: %v", userID, err)
	}
	return n
}

func entryCount(t *testing.T, pool *pgxpool.Pool, userID string, wallet model.WalletKind) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM wallet_entries WHERE user_id = $1 AND wallet = $2`,
		userID, wallet,
	).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count entries for %s: %v", userID, err)
	}
	return n
}
