package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/application/service"
	"github.com/sangkips/billing-core/internal/config"
	"github.com/sangkips/billing-core/internal/infrastructure/lock"
	"github.com/sangkips/billing-core/internal/infrastructure/memory"
	"github.com/sangkips/billing-core/internal/presentation/http/handler"
	"github.com/sangkips/billing-core/internal/presentation/http/middleware"
	"github.com/sangkips/billing-core/pkg/logger"
	"github.com/sangkips/billing-core/pkg/utils"
)

const testSecret = "test-secret"

type testServer struct {
	router *gin.Engine
	jwt    *utils.JWTManager
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ids, err := utils.NewIDGenerator(1)
	if err != nil {
		t.Fatalf("NewIDGenerator() error = %v", err)
	}
	log := logger.Discard()
	store := memory.NewStore()
	billStore := service.NewBillStore(store.Bills(), ids, nil)
	billing := service.NewBillingService(service.BillingServiceDeps{
		Transactor: store.Transactor(),
		Bills:      billStore,
		Allocator:  service.NewPaymentAllocator(billStore),
		Validator:  service.NewPaymentValidator(),
		Ledger:     service.NewTransactionLedger(store.Transactions(), ids, 10, nil),
		Locker:     lock.NewLocker(nil, time.Second, time.Second, log),
		Logger:     log,
	})

	cfg := &config.Config{
		App:       config.AppConfig{Name: "billing-core"},
		RateLimit: config.RateLimitConfig{Requests: 1000, Duration: 60},
		Billing:   config.BillingConfig{IdempotencyTTL: time.Hour},
	}
	jwtManager := utils.NewJWTManager(testSecret, time.Hour, "")

	router := Setup(&Handlers{
		Bill:        handler.NewBillHandler(billing),
		Payment:     handler.NewPaymentHandler(billing),
		Transaction: handler.NewTransactionHandler(billing, service.NewStatementExporter(billing)),
	}, &Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: store.IdempotencyKeys(),
		Logger:          log,
	})

	s := &testServer{router: router, jwt: jwtManager}
	s.token = s.tokenFor(t, []string{permissionManageBills, permissionManagePayments})
	return s
}

func (s *testServer) tokenFor(t *testing.T, permissions []string) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(uuid.New(), "cashier@example.com", []string{"cashier"}, permissions)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field string `json:"field"`
	} `json:"errors"`
	Meta struct {
		ErrorKind string `json:"error_kind"`
	} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return env
}

func billBody(prices ...float64) map[string]any {
	items := make([]map[string]any, 0, len(prices))
	for _, p := range prices {
		items = append(items, map[string]any{"item_name": "Filter", "quantity": 1, "unit_price": p})
	}
	return map[string]any{"account_id": "c-7", "account_type": "customer", "items": items}
}

func paymentBody(amount float64) map[string]any {
	return map[string]any{
		"account_id":     "c-7",
		"account_type":   "customer",
		"payment_amount": amount,
		"payment_method": "cash",
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", w.Code)
	}
}

func TestRequiresAuthAndPermission(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/bills", "", billBody(10), nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	readOnly := s.tokenFor(t, []string{permissionManagePayments})
	w = s.do(t, http.MethodPost, "/api/v1/bills", readOnly, billBody(10), nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("missing permission = %d, want 403", w.Code)
	}
}

func TestBillAndPaymentFlow(t *testing.T) {
	s := newTestServer(t)

	for _, price := range []float64{500, 300} {
		w := s.do(t, http.MethodPost, "/api/v1/bills", s.token, billBody(price), nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("POST /bills = %d: %s", w.Code, w.Body.String())
		}
	}

	key := map[string]string{middleware.IdempotencyKeyHeader: "k-1"}
	w := s.do(t, http.MethodPost, "/api/v1/payments/bulk", s.token, paymentBody(600), key)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /payments/bulk = %d: %s", w.Code, w.Body.String())
	}
	var result struct {
		Summary struct {
			TotalDue          string `json:"total_due"`
			PendingBillsCount int    `json:"pending_bills_count"`
		} `json:"summary"`
		Transaction struct {
			TransactionID string `json:"transaction_id"`
			RelatedBills  []any  `json:"related_bills"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &result); err != nil {
		t.Fatalf("decode payment result: %v", err)
	}
	if result.Summary.TotalDue != "200" || result.Summary.PendingBillsCount != 1 {
		t.Errorf("summary = %+v, want due 200 with 1 pending", result.Summary)
	}
	if len(result.Transaction.RelatedBills) != 2 {
		t.Errorf("related bills = %d, want 2", len(result.Transaction.RelatedBills))
	}

	// Same key and body is served from the stored response
	replay := s.do(t, http.MethodPost, "/api/v1/payments/bulk", s.token, paymentBody(600), key)
	if replay.Code != http.StatusOK || replay.Header().Get(middleware.IdempotencyReplayedHeader) != "true" {
		t.Errorf("replay = %d replayed=%q, want 200 true", replay.Code, replay.Header().Get(middleware.IdempotencyReplayedHeader))
	}

	// Same key with another body is refused
	w = s.do(t, http.MethodPost, "/api/v1/payments/bulk", s.token, paymentBody(100), key)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("reused key with new body = %d, want 422", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/bills/c-7/summary?account_type=customer", s.token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET summary = %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/transactions/c-7?account_type=customer", s.token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET transactions = %d", w.Code)
	}
	var page struct {
		Transactions []struct {
			TransactionID string `json:"transaction_id"`
		} `json:"transactions"`
		Pagination struct {
			HasNext bool `json:"has_next"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &page); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(page.Transactions) != 1 || page.Transactions[0].TransactionID != result.Transaction.TransactionID {
		t.Errorf("transactions = %+v, want the one posted payment", page.Transactions)
	}
	if page.Pagination.HasNext {
		t.Error("has_next = true for a single payment")
	}

	w = s.do(t, http.MethodGet, "/api/v1/transactions/c-7/export?account_type=customer", s.token, nil, nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Errorf("GET export = %d with %d bytes", w.Code, w.Body.Len())
	}
}

func TestPaymentErrors(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodPost, "/api/v1/bills", s.token, billBody(100), nil); w.Code != http.StatusCreated {
		t.Fatalf("POST /bills = %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/v1/payments/bulk", s.token, paymentBody(10), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing Idempotency-Key = %d, want 400", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/v1/payments/bulk", s.token, paymentBody(150),
		map[string]string{middleware.IdempotencyKeyHeader: "over"})
	if w.Code != http.StatusConflict || decode(t, w).Meta.ErrorKind != "overpayment" {
		t.Errorf("overpayment = %d %s, want 409 overpayment", w.Code, w.Body.String())
	}

	body := paymentBody(50)
	body["payment_method"] = "bank_transfer"
	w = s.do(t, http.MethodPost, "/api/v1/payments/bulk", s.token, body,
		map[string]string{middleware.IdempotencyKeyHeader: "bt"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bank transfer without details = %d, want 400", w.Code)
	}
	env := decode(t, w)
	if env.Meta.ErrorKind != "validation_error" || len(env.Errors) == 0 {
		t.Errorf("validation response = %+v", env)
	}
}

func TestCreateBillValidation(t *testing.T) {
	s := newTestServer(t)

	body := billBody(10)
	body["discount"] = 20
	w := s.do(t, http.MethodPost, "/api/v1/bills", s.token, body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("discount above subtotal = %d, want 400", w.Code)
	}
	env := decode(t, w)
	if len(env.Errors) != 1 || env.Errors[0].Field != "discount" {
		t.Errorf("errors = %+v, want discount", env.Errors)
	}

	w = s.do(t, http.MethodGet, "/api/v1/bills/c-7?account_type=vendor", s.token, nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown account type = %d, want 400", w.Code)
	}
}
