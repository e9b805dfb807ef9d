package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"vendora/internal/gateway"
	"vendora/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentService is a mock implementation of service.PaymentService.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) HandleNotification(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

func (m *MockPaymentService) VerifyAndSettle(ctx context.Context, txRef string) error {
	args := m.Called(ctx, txRef)
	return args.Error(0)
}

func TestPaymentHandler_Webhook(t *testing.T) {
	logger := zerolog.Nop()
	payload := `{"event":"charge.completed","data":{"tx_ref":"ORD-1","status":"successful","amount":70}}`

	tests := []struct {
		name           string
		signature      string
		mockError      error
		expectedStatus int
	}{
		{
			name:           "Settled",
			signature:      "whsec_test",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid signature",
			signature:      "forged",
			mockError:      model.ErrInvalidSignature,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Transient settlement failure reported for retry",
			signature:      "whsec_test",
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPaymentService)
			handler := NewPaymentHandler(mockService, logger)

			mockService.On("HandleNotification", mock.Anything, []byte(payload), tt.signature).
				Return(tt.mockError)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewBufferString(payload))
			req.Header.Set(gateway.SignatureHeader, tt.signature)
			w := httptest.NewRecorder()

			handler.Webhook(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_Verify(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		target         string
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			target:         "/api/payments/verify?tx_ref=ORD-1",
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Missing tx_ref",
			target:         "/api/payments/verify",
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
		{
			name:           "Gateway unreachable",
			target:         "/api/payments/verify?tx_ref=ORD-1",
			mockError:      &gateway.Error{StatusCode: 503, Message: "service unavailable"},
			expectedStatus: http.StatusBadGateway,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPaymentService)
			handler := NewPaymentHandler(mockService, logger)

			if tt.expectService {
				mockService.On("VerifyAndSettle", mock.Anything, "ORD-1").Return(tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			w := httptest.NewRecorder()

			handler.Verify(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if !tt.expectService {
				mockService.AssertNotCalled(t, "VerifyAndSettle", mock.Anything, mock.Anything)
			}
		})
	}
}
