package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/report"
	"finance-tracker/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// HandlersTestSuite exercises the JSON API against an in-memory database.
type HandlersTestSuite struct {
	suite.Suite
	db  *storage.DB
	h   *Handlers
	mux *http.ServeMux
}

func (suite *HandlersTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create database")
	suite.db = db
	suite.h = NewHandlers(db, time.Hour, false)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", suite.h.Register)
	mux.HandleFunc("POST /api/login", suite.h.Login)
	mux.HandleFunc("POST /api/logout", suite.h.Logout)
	mux.Handle("GET /api/me", suite.h.AuthMiddleware(http.HandlerFunc(suite.h.Me)))
	mux.Handle("GET /api/transactions", suite.h.AuthMiddleware(http.HandlerFunc(suite.h.ListTransactions)))
	mux.Handle("POST /api/transactions", suite.h.AuthMiddleware(http.HandlerFunc(suite.h.CreateTransaction)))
	mux.Handle("GET /api/summary", suite.h.AuthMiddleware(http.HandlerFunc(suite.h.Summary)))
	suite.mux = mux
}

func (suite *HandlersTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *HandlersTestSuite) do(method, path, body string, session *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	w := httptest.NewRecorder()
	suite.mux.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) login(username, password string) *http.Cookie {
	w := suite.do("POST", "/api/register", `{"username":"`+username+`","password":"`+password+`"}`, nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	w = suite.do("POST", "/api/login", `{"username":"`+username+`","password":"`+password+`"}`, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	suite.T().Fatal("no session cookie after login")
	return nil
}

func (suite *HandlersTestSuite) TestRegister_Duplicate() {
	body := `{"username":"alice","password":"secret"}`
	w := suite.do("POST", "/api/register", body, nil)
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.do("POST", "/api/register", body, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestRegister_MissingFields() {
	w := suite.do("POST", "/api/register", `{"username":"  ","password":"x"}`, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.do("POST", "/api/register", `not json`, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLogin_WrongPassword() {
	suite.login("alice", "secret")

	w := suite.do("POST", "/api/login", `{"username":"alice","password":"wrong"}`, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.do("POST", "/api/login", `{"username":"nobody","password":"secret"}`, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestAuthRequired() {
	w := suite.do("GET", "/api/transactions", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.do("GET", "/api/me", "", &http.Cookie{Name: SessionCookieName, Value: "bogus"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestMeAndLogout() {
	session := suite.login("alice", "secret")

	w := suite.do("GET", "/api/me", "", session)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var me models.User
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(suite.T(), "alice", me.Username)
	assert.NotContains(suite.T(), w.Body.String(), "password")

	w = suite.do("POST", "/api/logout", "", session)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.do("GET", "/api/me", "", session)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestCreateAndListTransactions() {
	alice := suite.login("alice", "secret")
	bob := suite.login("bob", "secret")

	for _, body := range []string{
		`{"date":"2024-03-01","type":"Income","category":"Salary","description":"Pay","amount":"100"}`,
		`{"date":"2024-03-02","type":"Expense","category":"Food","description":"Lunch","amount":12.5}`,
		`{"date":"2024-04-02","type":"Expense","category":"Bills","description":"Power","amount":"30"}`,
	} {
		w := suite.do("POST", "/api/transactions", body, alice)
		require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	}
	w := suite.do("POST", "/api/transactions",
		`{"date":"2024-03-05","type":"Expense","category":"Food","description":"Bob's","amount":"9"}`, bob)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.do("GET", "/api/transactions?month=3&year=2024", "", alice)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var listed []map[string]any
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(suite.T(), listed, 2)
	assert.Equal(suite.T(), "2024-03-01", listed[0]["date"])
	assert.Equal(suite.T(), "Lunch", listed[1]["description"])

	w = suite.do("GET", "/api/transactions?month=All&year=All", "", alice)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(suite.T(), listed, 3)
}

func (suite *HandlersTestSuite) TestListTransactions_EmptyIsArray() {
	session := suite.login("alice", "secret")

	w := suite.do("GET", "/api/transactions", "", session)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `[]`, w.Body.String())
}

func (suite *HandlersTestSuite) TestCreateTransaction_Validation() {
	session := suite.login("alice", "secret")

	tests := []struct {
		name string
		body string
	}{
		{"missing date", `{"type":"Expense","description":"x","amount":"1"}`},
		{"bad date", `{"date":"03/01/2024","type":"Expense","description":"x","amount":"1"}`},
		{"bad type", `{"date":"2024-03-01","type":"Transfer","description":"x","amount":"1"}`},
		{"negative amount", `{"date":"2024-03-01","type":"Expense","description":"x","amount":"-1"}`},
		{"empty description", `{"date":"2024-03-01","type":"Expense","description":"  ","amount":"1"}`},
		{"not json", `amount=1`},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.do("POST", "/api/transactions", tt.body, session)
			assert.Equal(suite.T(), http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func (suite *HandlersTestSuite) TestListTransactions_BadFilter() {
	session := suite.login("alice", "secret")

	w := suite.do("GET", "/api/transactions?month=13", "", session)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.do("GET", "/api/summary?year=abc", "", session)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestSummary() {
	session := suite.login("alice", "secret")

	for _, body := range []string{
		`{"date":"2024-03-01","type":"Income","category":"Salary","description":"Pay","amount":"100"}`,
		`{"date":"2024-03-02","type":"Expense","category":"Food","description":"Lunch","amount":"40"}`,
		`{"date":"2024-03-03","type":"Expense","category":"Food","description":"Dinner","amount":"30"}`,
	} {
		w := suite.do("POST", "/api/transactions", body, session)
		require.Equal(suite.T(), http.StatusCreated, w.Code)
	}

	w := suite.do("GET", "/api/summary", "", session)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Totals struct {
			Income  string `json:"income"`
			Expense string `json:"expense"`
			Net     string `json:"net"`
		} `json:"totals"`
		ByCategory []struct {
			Category string `json:"category"`
			Amount   string `json:"amount"`
		} `json:"by_category"`
		Monthly      []map[string]string `json:"monthly"`
		Overspending []any               `json:"overspending"`
		Warning      string              `json:"warning"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(suite.T(), "100", resp.Totals.Income)
	assert.Equal(suite.T(), "70", resp.Totals.Expense)
	assert.Equal(suite.T(), "30", resp.Totals.Net)
	require.Len(suite.T(), resp.ByCategory, 1)
	assert.Equal(suite.T(), "Food", resp.ByCategory[0].Category)
	require.Len(suite.T(), resp.Monthly, 1)
	assert.Equal(suite.T(), "2024-03", resp.Monthly[0]["month"])
	assert.Empty(suite.T(), resp.Overspending)
	assert.Empty(suite.T(), resp.Warning)
}

func (suite *HandlersTestSuite) TestSummary_Overspending() {
	session := suite.login("alice", "secret")

	w := suite.do("POST", "/api/transactions",
		`{"date":"2024-03-02","type":"Expense","category":"Bills","description":"Rent","amount":"1200"}`, session)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.do("GET", "/api/summary?month=3&year=2024", "", session)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp SummaryResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(suite.T(), resp.Overspending, 1)
	assert.Equal(suite.T(), "Bills", resp.Overspending[0].Category)
	assert.Equal(suite.T(), "High spending detected in: Bills ($1200.00)", resp.Warning)
}

func (suite *HandlersTestSuite) TestRollingSessionRenewal() {
	user, err := suite.db.CreateUser(context.Background(), "carol", "hash")
	require.NoError(suite.T(), err)

	// A session in the second half of its lifetime gets renewed.
	token := "rolling-token"
	require.NoError(suite.T(), suite.db.CreateSession(context.Background(), token, user.ID, time.Now().Add(10*time.Minute)))

	w := suite.do("GET", "/api/me", "", &http.Cookie{Name: SessionCookieName, Value: token})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var renewed bool
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value == token && c.MaxAge > 0 {
			renewed = true
		}
	}
	assert.True(suite.T(), renewed, "expected a refreshed session cookie")

	info, err := suite.db.ValidateSessionWithInfo(context.Background(), token)
	require.NoError(suite.T(), err)
	assert.Greater(suite.T(), time.Until(info.ExpiresAt), 30*time.Minute)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		query   string
		want    models.Filter
		wantErr bool
	}{
		{"", models.Filter{}, false},
		{"month=3", models.Filter{Month: 3}, false},
		{"month=3&year=2024", models.Filter{Month: 3, Year: 2024}, false},
		{"month=all&year=ALL", models.Filter{}, false},
		{"month=0", models.Filter{}, true},
		{"year=-1", models.Filter{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/transactions?"+tt.query, http.NoBody)
			got, err := parseFilter(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOverspendingWarning(t *testing.T) {
	got := overspendingWarning([]report.CategoryAmount{
		{Category: "Bills", Amount: decimal.RequireFromString("1500")},
		{Category: "Food", Amount: decimal.RequireFromString("1000.5")},
	})
	assert.Equal(t, "High spending detected in: Bills ($1500.00), Food ($1000.50)", got)
}
