package ledger_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	. "github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger/ledgertest"
	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

func newTestRouter(store *ledgertest.Store) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, newTestService(store))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func TestHandlerPostTransaction(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	router := newTestRouter(store)

	body := `{
		"business_id": 1,
		"date": "2025-03-10T00:00:00Z",
		"memo": "cash sale",
		"lines": [
			{"account_id": ` + itoa(cash.ID) + `, "debit": "250.00"},
			{"account_id": ` + itoa(sales.ID) + `, "credit": "250.00"}
		]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ledger/transactions", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var posted Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
	require.Equal(t, "JV-00001", posted.Number)
	require.Len(t, posted.Entries, 2)
}

func TestHandlerUnbalancedTransactionReturnsProblem(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	router := newTestRouter(store)

	body := `{
		"business_id": 1,
		"date": "2025-03-10T00:00:00Z",
		"lines": [
			{"account_id": ` + itoa(cash.ID) + `, "debit": "250.00"},
			{"account_id": ` + itoa(sales.ID) + `, "credit": "200.00"}
		]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ledger/transactions", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, "Validation Failed", problem.Title)
	require.Contains(t, problem.Detail, "balance")
}

func TestHandlerClosedPeriodReturnsConflict(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	for id := int64(1); id <= 13; id++ {
		store.SetPeriodStatus(id, "closed")
	}
	router := newTestRouter(store)

	body := `{
		"business_id": 1,
		"date": "2025-03-10T00:00:00Z",
		"lines": [
			{"account_id": ` + itoa(cash.ID) + `, "debit": "10.00"},
			{"account_id": ` + itoa(sales.ID) + `, "credit": "10.00"}
		]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ledger/transactions", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerBalanceEndpoint(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	router := newTestRouter(store)

	body := `{
		"business_id": 1,
		"date": "2025-03-10T00:00:00Z",
		"lines": [
			{"account_id": ` + itoa(cash.ID) + `, "debit": "250.00"},
			{"account_id": ` + itoa(sales.ID) + `, "credit": "250.00"}
		]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ledger/transactions", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger/accounts/"+itoa(cash.ID)+"/balance?business_id=1&as_of=2025-12-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var balance Balance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	require.True(t, balance.Net.Equal(dec("250.00")))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
