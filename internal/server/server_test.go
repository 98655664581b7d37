package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kyatflow/internal/config"
	"kyatflow/internal/logger"
	"kyatflow/internal/models"
	"kyatflow/internal/testutil"
)

const (
	adminEmail  = "admin@kyatflow.test"
	internalKey = "cron-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (n *recordingNotifier) Notify(subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	return nil
}

// testApp holds the full application stack backed by an isolated SQLite database.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Notifier *recordingNotifier
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Env:              "test",
		RateLimit:        "1000-M",
		JWTSecret:        "integration-secret",
		JWTExpirationDur: time.Hour,
		AdminEmails:      []string{adminEmail},
		TrialDays:        7,
		ProDays:          30,
		InternalAPIKey:   internalKey,
	}
	config.Set(cfg)

	db := testutil.SetupTestDB(t)
	notifier := &recordingNotifier{}
	router, err := NewRouter(cfg, db, notifier)
	require.NoError(t, err)

	return &testApp{DB: db, Router: router, Notifier: notifier}
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), "body: %s", rec.Body.String())
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	require.True(t, ok, "expected error body, got %s", rec.Body.String())
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","name":"Test"}`, email)
	rec := app.request("POST", "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

func (app *testApp) createParty(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/parties", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return parseJSON(t, rec)["party"].(map[string]interface{})["id"].(string)
}

func (app *testApp) createTransaction(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/transactions", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)
}

func (app *testApp) partyBalance(t *testing.T, token, partyID string) decimal.Decimal {
	t.Helper()
	rec := app.request("GET", "/api/parties/"+partyID, "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	party := parseJSON(t, rec)["party"].(map[string]interface{})
	return decimal.RequireFromString(party["balance"].(string))
}

func assertBalance(t *testing.T, app *testApp, token, partyID, want string) {
	t.Helper()
	got := app.partyBalance(t, token, partyID)
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "balance = %s, want %s", got, want)
	testutil.AssertLedgerConsistent(t, app.DB, partyID)
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", parseJSON(t, rec)["status"])
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "owner@shop.test")

	rec := app.request("GET", "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, userID, user["id"])
	assert.Equal(t, "free", user["subscriptionStatus"])

	rec = app.request("POST", "/api/auth/login", `{"email":"owner@shop.test","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, parseJSON(t, rec)["token"])

	rec = app.request("POST", "/api/auth/login", `{"email":"owner@shop.test","password":"wrong-password"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request("POST", "/api/auth/register", `{"email":"owner@shop.test","password":"password123"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.request("GET", "/api/parties", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLedgerFlow_BalancesFollowTransactions(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "ledger@shop.test")

	customer := app.createParty(t, token, `{"name":"Ko Aung","type":"customer"}`)
	supplier := app.createParty(t, token, `{"name":"Daw Mya","type":"supplier","balance":"-500"}`)
	assertBalance(t, app, token, supplier, "-500")

	// Income raises and expense lowers the party balance.
	sale := app.createTransaction(t, token,
		fmt.Sprintf(`{"amount":"1000","type":"income","category":"Sales","partyId":%q}`, customer))
	refund := app.createTransaction(t, token,
		fmt.Sprintf(`{"amount":"300","type":"expense","category":"Refund","partyId":%q}`, customer))
	assertBalance(t, app, token, customer, "700")

	// Changing the amount replaces the old effect.
	rec := app.request("PUT", "/api/transactions/"+sale, `{"amount":"1500"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertBalance(t, app, token, customer, "1200")

	// Flipping the type reverses the sign of the effect.
	rec = app.request("PUT", "/api/transactions/"+refund, `{"type":"income"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertBalance(t, app, token, customer, "1800")

	// Moving a transaction shifts its effect between parties.
	rec = app.request("PUT", "/api/transactions/"+sale, fmt.Sprintf(`{"partyId":%q}`, supplier), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertBalance(t, app, token, customer, "300")
	assertBalance(t, app, token, supplier, "1000")

	// Detaching reverses the effect.
	rec = app.request("PUT", "/api/transactions/"+refund, `{"partyId":null}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertBalance(t, app, token, customer, "0")

	// Deleting reverses the effect.
	rec = app.request("DELETE", "/api/transactions/"+sale, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assertBalance(t, app, token, supplier, "-500")

	// Editing a party never touches its balance.
	rec = app.request("PUT", "/api/parties/"+supplier, `{"name":"Daw Mya Co","balance":"0"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assertBalance(t, app, token, supplier, "-500")
}

func TestLedgerFlow_DeletePartyWithTransactions(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "delete@shop.test")

	party := app.createParty(t, token, `{"name":"Ko Aung","type":"customer"}`)
	txID := app.createTransaction(t, token,
		fmt.Sprintf(`{"amount":"250","type":"income","partyId":%q}`, party))

	rec := app.request("DELETE", "/api/parties/"+party, "", token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PARTY_HAS_TRANSACTIONS", errorCode(t, rec))
	assertBalance(t, app, token, party, "250")

	rec = app.request("DELETE", "/api/transactions/"+txID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.request("DELETE", "/api/parties/"+party, "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.request("GET", "/api/parties/"+party, "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLedgerFlow_TenantIsolation(t *testing.T) {
	app := setupApp(t)
	ownerToken, _ := app.registerUser(t, "owner@shop.test")
	otherToken, _ := app.registerUser(t, "other@shop.test")

	party := app.createParty(t, ownerToken, `{"name":"Ko Aung","type":"customer"}`)
	txID := app.createTransaction(t, ownerToken,
		fmt.Sprintf(`{"amount":"100","type":"income","partyId":%q}`, party))

	rec := app.request("GET", "/api/parties/"+party, "", otherToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request("GET", "/api/transactions/"+txID, "", otherToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Another user cannot book against a party they do not own.
	rec = app.request("POST", "/api/transactions",
		fmt.Sprintf(`{"amount":"100","type":"income","partyId":%q}`, party), otherToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assertBalance(t, app, ownerToken, party, "100")

	rec = app.request("GET", "/api/transactions", "", otherToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, parseJSON(t, rec)["data"])
}

func TestSubscriptionFlow_TrialGatesPaidFeatures(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "trial@shop.test")

	rec := app.request("GET", "/api/budgets", "", token)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "SUBSCRIPTION_REQUIRED", errorCode(t, rec))

	rec = app.request("POST", "/api/auth/start-trial", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sub := parseJSON(t, rec)
	assert.Equal(t, "trial", sub["subscriptionStatus"])
	assert.Equal(t, true, sub["active"])

	rec = app.request("POST", "/api/auth/start-trial", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TRIAL_NOT_AVAILABLE", errorCode(t, rec))

	rec = app.request("POST", "/api/budgets", `{"category":"Rent","amount":"300000","period":"monthly"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.request("GET", "/api/analytics/summary", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubscriptionFlow_RedeemCodeOnce(t *testing.T) {
	app := setupApp(t)
	adminToken, _ := app.registerUser(t, adminEmail)
	firstToken, _ := app.registerUser(t, "first@shop.test")
	secondToken, _ := app.registerUser(t, "second@shop.test")

	rec := app.request("POST", "/api/auth/generate-code", "", firstToken)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.request("POST", "/api/auth/generate-code", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := parseJSON(t, rec)["code"].(string)

	rec = app.request("POST", "/api/auth/verify-code", fmt.Sprintf(`{"code":%q}`, code), firstToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pro", parseJSON(t, rec)["subscriptionStatus"])

	rec = app.request("POST", "/api/auth/verify-code", fmt.Sprintf(`{"code":%q}`, code), secondToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CODE", errorCode(t, rec))

	rec = app.request("GET", "/api/auth/subscription", "", secondToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "free", parseJSON(t, rec)["subscriptionStatus"])

	rec = app.request("GET", "/api/admin/codes?used=true", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["data"], 1)
}

func TestSubscriptionFlow_AdminSetStatus(t *testing.T) {
	app := setupApp(t)
	adminToken, _ := app.registerUser(t, adminEmail)
	userToken, userID := app.registerUser(t, "member@shop.test")

	rec := app.request("POST", "/api/auth/admin/update-status",
		fmt.Sprintf(`{"userId":%q,"status":"pro","days":90}`, userID), adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request("GET", "/api/budgets", "", userToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.request("POST", "/api/auth/admin/update-status",
		fmt.Sprintf(`{"userId":%q,"status":"expired"}`, userID), adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	assert.Nil(t, user["subscriptionEndDate"])

	rec = app.request("GET", "/api/budgets", "", userToken)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = app.request("POST", "/api/auth/admin/update-status",
		fmt.Sprintf(`{"userId":%q,"status":"pro"}`, userID), userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubscriptionFlow_PaymentNotify(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "payer@shop.test")

	rec := app.request("POST", "/api/auth/payment-notify", `{"paymentMethod":"KBZPay"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, app.Notifier.subjects, 1)

	rec = app.request("GET", "/api/auth/subscription", "", token)
	assert.Equal(t, "free", parseJSON(t, rec)["subscriptionStatus"])
}

func TestInternalExpireSubscriptions(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "overdue@shop.test")

	past := time.Now().Add(-time.Hour)
	user := &models.User{}
	user.ID = userID
	testutil.SetTestSubscription(t, app.DB, user, models.SubscriptionTrial, &past)

	rec := app.request("POST", "/api/internal/subscriptions/expire", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("POST", "/api/internal/subscriptions/expire", nil)
	req.Header.Set("X-API-Key", internalKey)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), parseJSON(t, rec)["expired"])

	rec = app.request("GET", "/api/auth/subscription", "", token)
	assert.Equal(t, "expired", parseJSON(t, rec)["subscriptionStatus"])
}

func TestCORSConfig(t *testing.T) {
	open := corsConfig(nil)
	assert.True(t, open.AllowAllOrigins)
	assert.False(t, open.AllowCredentials)

	restricted := corsConfig([]string{"https://app.kyatflow.test"})
	assert.False(t, restricted.AllowAllOrigins)
	assert.True(t, restricted.AllowCredentials)
	assert.Equal(t, []string{"https://app.kyatflow.test"}, restricted.AllowOrigins)
}

func TestNewRouterRejectsBadRateLimit(t *testing.T) {
	cfg := &config.Config{RateLimit: "not-a-rate", JWTSecret: "x", JWTExpirationDur: time.Hour}
	_, err := NewRouter(cfg, testutil.SetupTestDB(t), &recordingNotifier{})
	assert.Error(t, err)
}
