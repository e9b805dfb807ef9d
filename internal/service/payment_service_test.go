package service

import (
	"context"
	"testing"

	"vendora/internal/gateway"
	"vendora/internal/metrics"
	"vendora/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type paymentServiceFixture struct {
	orders  *MockOrderService
	wallets *MockWalletService
	gw      *MockGateway
	dedup   *recordingDedup
	svc     PaymentService
}

func newPaymentFixture() *paymentServiceFixture {
	f := &paymentServiceFixture{
		orders:  new(MockOrderService),
		wallets: new(MockWalletService),
		gw:      new(MockGateway),
		dedup:   newRecordingDedup(),
	}
	f.svc = NewPaymentService(
		f.orders, f.wallets, f.gw, f.dedup,
		testWebhookSecret, metrics.New(prometheus.NewRegistry()), zerolog.Nop(),
	)
	return f
}

func TestPaymentService_HandleNotification_InvalidSignature(t *testing.T) {
	f := newPaymentFixture()

	payload := []byte(`{"event":"charge.completed","data":{"tx_ref":"ORD-1","status":"successful","amount":40}}`)

	err := f.svc.HandleNotification(context.Background(), payload, "wrong-secret")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidSignature)
	f.orders.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleNotification_SettlesOrder(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	payload := []byte(`{"event":"charge.completed","data":{"id":123,"tx_ref":"ORD-1","status":"successful","amount":40,"currency":"NGN"}}`)

	f.orders.On("Finalize", ctx, "ORD-1", 40.0).Return(FinalizePlaced, nil)

	err := f.svc.HandleNotification(ctx, payload, testWebhookSecret)

	require.NoError(t, err)
	assert.True(t, f.dedup.Seen(ctx, "ORD-1"))
	f.orders.AssertExpectations(t)
}

func TestPaymentService_HandleNotification_FailedPaymentFailsOrder(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	payload := []byte(`{"event":"charge.completed","data":{"tx_ref":"ORD-1","status":"failed","amount":40}}`)

	f.orders.On("Fail", ctx, "ORD-1", "payment failed").Return(nil)

	err := f.svc.HandleNotification(ctx, payload, testWebhookSecret)

	require.NoError(t, err)
	f.orders.AssertExpectations(t)
	f.orders.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleNotification_RoutesTopUps(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	payload := []byte(`{"event":"charge.completed","data":{"tx_ref":"TOP-9","status":"successful","amount":500}}`)

	f.wallets.On("ConfirmTopUp", ctx, "TOP-9", 500.0).Return(nil)

	err := f.svc.HandleNotification(ctx, payload, testWebhookSecret)

	require.NoError(t, err)
	f.wallets.AssertExpectations(t)
	f.orders.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleNotification_DuplicateShortCircuits(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.dedup.Mark(ctx, "ORD-1")
	payload := []byte(`{"event":"charge.completed","data":{"tx_ref":"ORD-1","status":"successful","amount":40}}`)

	err := f.svc.HandleNotification(ctx, payload, testWebhookSecret)

	require.NoError(t, err)
	f.orders.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleNotification_UnknownPrefixAcknowledged(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	payload := []byte(`{"event":"charge.completed","data":{"tx_ref":"XYZ-1","status":"successful","amount":40}}`)

	err := f.svc.HandleNotification(ctx, payload, testWebhookSecret)

	require.NoError(t, err)
	f.orders.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
	f.wallets.AssertNotCalled(t, "ConfirmTopUp", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleNotification_SettlementErrorIsNotMarked(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	payload := []byte(`{"event":"charge.completed","data":{"tx_ref":"ORD-1","status":"successful","amount":40}}`)

	f.orders.On("Finalize", ctx, "ORD-1", 40.0).Return(FinalizeNoMatch, assert.AnError)

	err := f.svc.HandleNotification(ctx, payload, testWebhookSecret)

	require.Error(t, err)
	// Not marked as processed, so the gateway's retry gets another attempt.
	assert.False(t, f.dedup.Seen(ctx, "ORD-1"))
}

func TestPaymentService_VerifyAndSettle_Success(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.gw.On("Verify", ctx, "ORD-1").Return(&gateway.VerifiedPayment{
		TransactionID: "tx-123",
		TxRef:         "ORD-1",
		Status:        "successful",
		Amount:        40,
		Currency:      "NGN",
	}, nil)
	f.orders.On("Finalize", ctx, "ORD-1", 40.0).Return(FinalizePlaced, nil)

	err := f.svc.VerifyAndSettle(ctx, "ORD-1")

	require.NoError(t, err)
	f.gw.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestPaymentService_VerifyAndSettle_FailedPayment(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.gw.On("Verify", ctx, "TOP-9").Return(&gateway.VerifiedPayment{
		TxRef:  "TOP-9",
		Status: "failed",
		Amount: 500,
	}, nil)
	f.wallets.On("FailTopUp", ctx, "TOP-9", "payment failed").Return(nil)

	err := f.svc.VerifyAndSettle(ctx, "TOP-9")

	require.NoError(t, err)
	f.wallets.AssertExpectations(t)
}

func TestPaymentService_VerifyAndSettle_GatewayError(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.gw.On("Verify", ctx, "ORD-1").Return(nil, &gateway.Error{StatusCode: 500, Message: "boom"})

	err := f.svc.VerifyAndSettle(ctx, "ORD-1")

	require.Error(t, err)
	f.orders.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
}
