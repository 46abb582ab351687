package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/services"
	"github.com/404Simon/splitify/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	balances := services.NewBalanceService(repo, 16, time.Minute)
	srv := NewServer(":0", Options{
		Storage:      repo,
		Debts:        services.NewDebtService(repo, nil, balances),
		Transactions: services.NewTransactionService(repo, nil, balances),
		Balances:     balances,
		Recurring:    services.NewRecurringService(repo),
	})
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string, asUser int64) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser > 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", asUser))
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func createUser(t *testing.T, srv *Server, username string) core.User {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/users", `{"username":"`+username+`"}`, 0)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create user %s: status=%d body=%s", username, rr.Code, rr.Body.String())
	}
	var u core.User
	decodeBody(t, rr, &u)
	return u
}

func createGroup(t *testing.T, srv *Server, name string, creator int64, members ...int64) core.Group {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/groups", `{"name":"`+name+`"}`, creator)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create group: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var g core.Group
	decodeBody(t, rr, &g)
	for _, m := range members {
		rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/members", g.ID),
			fmt.Sprintf(`{"user_id":%d}`, m), creator)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("add member %d: status=%d body=%s", m, rr.Code, rr.Body.String())
		}
	}
	return g
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/metrics"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", 0)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCreateGroupRequiresUserHeader(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/groups", `{"name":"trip"}`, 0)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", rr.Code)
	}
}

func TestGroupLifecycle(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice")
	bob := createUser(t, srv, "bob")
	group := createGroup(t, srv, "trip", alice.ID, bob.ID)

	rr := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/groups/%d", group.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("get group: status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/groups/%d/members", group.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("list members: status=%d", rr.Code)
	}
	var members []core.User
	decodeBody(t, rr, &members)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/groups/999", "", alice.ID)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown group, got %d", rr.Code)
	}
}

func TestDebtLifecycle(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice")
	bob := createUser(t, srv, "bob")
	group := createGroup(t, srv, "trip", alice.ID, bob.ID)

	rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/debts", group.ID),
		fmt.Sprintf(`{"name":"dinner","amount":"30.00","participant_ids":[%d]}`, bob.ID), alice.ID)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create debt: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created debtResponse
	decodeBody(t, rr, &created)
	if len(created.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(created.Participants))
	}
	for _, p := range created.Participants {
		if p.Share.String() != "15.00" {
			t.Errorf("share = %s, want 15.00", p.Share.String())
		}
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/debts/%d", created.Debt.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("get debt: status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/groups/%d/debts", group.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("list debts: status=%d", rr.Code)
	}
	var debts []core.SharedDebt
	decodeBody(t, rr, &debts)
	if len(debts) != 1 {
		t.Fatalf("expected 1 debt, got %d", len(debts))
	}

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/debts/%d", created.Debt.ID), "", alice.ID)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete debt: status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/debts/%d", created.Debt.ID), "", alice.ID)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestCreateDebtValidation(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice")
	outsider := createUser(t, srv, "mallory")
	group := createGroup(t, srv, "trip", alice.ID)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"invalid amount", `{"name":"x","amount":"abc","participant_ids":[]}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"name":"x","amount":"-5.00","participant_ids":[]}`, http.StatusUnprocessableEntity},
		{"empty name", fmt.Sprintf(`{"name":"","amount":"10.00","participant_ids":[%d]}`, alice.ID), http.StatusUnprocessableEntity},
		{"cross-group participant", fmt.Sprintf(`{"name":"x","amount":"10.00","participant_ids":[%d]}`, outsider.ID), http.StatusUnprocessableEntity},
		{"malformed body", `not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/debts", group.ID), tc.body, alice.ID)
			if rr.Code != tc.want {
				t.Fatalf("status=%d, want %d (body=%s)", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestBalancesAndSettle(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice")
	bob := createUser(t, srv, "bob")
	group := createGroup(t, srv, "trip", alice.ID, bob.ID)

	rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/debts", group.ID),
		fmt.Sprintf(`{"name":"hotel","amount":"100.00","participant_ids":[%d]}`, bob.ID), alice.ID)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create debt: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/groups/%d/balances", group.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("balances: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var report services.BalanceReport
	decodeBody(t, rr, &report)
	if len(report.Balances) != 1 {
		t.Fatalf("expected 1 balance entry, got %d", len(report.Balances))
	}
	entry := report.Balances[0]
	if entry.FromUserID != bob.ID || entry.ToUserID != alice.ID || entry.Amount.String() != "50.00" {
		t.Fatalf("unexpected balance entry: %+v", entry)
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/groups/%d/settle", group.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("settle: status=%d", rr.Code)
	}
	var settle settleResponse
	decodeBody(t, rr, &settle)
	if len(settle.Transfers) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(settle.Transfers))
	}

	// Bob pays his half back; the group should be square.
	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/transactions", group.ID),
		fmt.Sprintf(`{"recipient_id":%d,"amount":"50.00","description":"payback"}`, alice.ID), bob.ID)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/groups/%d/balances", group.ID), "", alice.ID)
	decodeBody(t, rr, &report)
	if len(report.Balances) != 0 {
		t.Fatalf("expected settled group, got %+v", report.Balances)
	}
}

func TestTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice")
	group := createGroup(t, srv, "solo", alice.ID)

	rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/transactions", group.ID),
		fmt.Sprintf(`{"recipient_id":%d,"amount":"10.00"}`, alice.ID), alice.ID)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for self-payment, got %d", rr.Code)
	}
}

func TestRecurringLifecycle(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice")
	bob := createUser(t, srv, "bob")
	group := createGroup(t, srv, "flat", alice.ID, bob.ID)

	rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/recurring", group.ID),
		fmt.Sprintf(`{"name":"rent","amount":"900.00","frequency":"monthly","start_date":"2099-01-01","participant_ids":[%d]}`, bob.ID), alice.ID)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create recurring: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created recurringResponse
	decodeBody(t, rr, &created)
	if !created.Recurring.IsActive {
		t.Fatal("new recurring debt should be active")
	}
	if created.Recurring.NextGenerationDate.String() != "2099-01-01" {
		t.Fatalf("next generation = %s, want start date", created.Recurring.NextGenerationDate)
	}

	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/recurring/%d/deactivate", created.Recurring.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("deactivate: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var rec core.RecurringDebt
	decodeBody(t, rr, &rec)
	if rec.IsActive {
		t.Fatal("expected inactive after deactivate")
	}

	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/recurring/%d/activate", created.Recurring.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("activate: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/recurring/%d/debts", created.Recurring.ID), "", alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("list generated: status=%d", rr.Code)
	}
	var generated []core.SharedDebt
	decodeBody(t, rr, &generated)
	if len(generated) != 0 {
		t.Fatalf("expected no generated debts yet, got %d", len(generated))
	}

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/recurring/%d", created.Recurring.ID), "", alice.ID)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete recurring: status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/recurring/%d", created.Recurring.ID), "", alice.ID)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestRecurringValidation(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice")
	group := createGroup(t, srv, "flat", alice.ID)

	cases := []struct {
		name string
		body string
	}{
		{"bad frequency", `{"name":"rent","amount":"900.00","frequency":"fortnightly","start_date":"2099-01-01","participant_ids":[]}`},
		{"bad date", `{"name":"rent","amount":"900.00","frequency":"monthly","start_date":"January 1st","participant_ids":[]}`},
		{"end before start", `{"name":"rent","amount":"900.00","frequency":"monthly","start_date":"2099-02-01","end_date":"2099-01-01","participant_ids":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/recurring", group.ID), tc.body, alice.ID)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d, want 422 (body=%s)", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestUpdateDebtParticipantsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice")
	bob := createUser(t, srv, "bob")
	carol := createUser(t, srv, "carol")
	group := createGroup(t, srv, "trip", alice.ID, bob.ID, carol.ID)

	rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/groups/%d/debts", group.ID),
		fmt.Sprintf(`{"name":"taxi","amount":"30.00","participant_ids":[%d,%d]}`, bob.ID, carol.ID), alice.ID)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create debt: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created debtResponse
	decodeBody(t, rr, &created)

	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/debts/%d/participants", created.Debt.ID),
		fmt.Sprintf(`{"participant_ids":[%d]}`, bob.ID), alice.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("update participants: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var shares []core.DebtParticipant
	decodeBody(t, rr, &shares)
	if len(shares) != 2 {
		t.Fatalf("expected 2 shares after update, got %d", len(shares))
	}
	for _, p := range shares {
		if p.Share.String() != "15.00" {
			t.Errorf("share = %s, want 15.00", p.Share.String())
		}
	}
}
