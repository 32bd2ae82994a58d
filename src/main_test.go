package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"cafe/src/clock"
	"cafe/src/common"
	"cafe/src/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB     *gorm.DB
	Mock   sqlmock.Sqlmock
	Router *gin.Engine
}

// stubAuth replaces the JWT middleware: tests pass the role in a header.
func stubAuth(ctx *gin.Context) {
	role := ctx.GetHeader("X-Test-Role")
	if role == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ctx.Set("id", uint(7))
	ctx.Set("email", "user@example.com")
	ctx.Set("role", role)
}

func (s *TestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	registerValidators()

	d, mock := db.NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock
	common.SetClock(clock.Fixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	router := setupRouter()
	stripeWebhookRoute(router)
	authorized := router.Group(apiPrefix)
	authorized.Use(stubAuth)
	{
		authorized = sessionHandlers(authorized)
		authorized = reservationHandlers(authorized)
		authorized = discountHandlers(authorized)
		authorized = coinHandlers(authorized)
	}
	s.Router = router
}

func (s *TestSuite) TestHealthCheck() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *TestSuite) TestReservationsRequireAuth() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, apiPrefix+"/reservations", strings.NewReader(`{}`))
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *TestSuite) TestAdminRoutesRejectCustomers() {
	w := httptest.NewRecorder()
	body := `{"hall_id":1,"day_of_week":2,"start_time":"18:00","price":150000,"max_participants":20}`
	req, _ := http.NewRequest(http.MethodPost, apiPrefix+"/session-templates", strings.NewReader(body))
	req.Header.Set("X-Test-Role", "customer")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *TestSuite) TestCreateSessionTemplate() {
	s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "halls"`)).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "branch_id", "name", "is_active"}).
			AddRow(1, 3, "Main Hall", true))
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "session_templates"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	s.Mock.ExpectCommit()

	w := httptest.NewRecorder()
	body := `{"hall_id":1,"day_of_week":2,"start_time":"18:00","price":150000,"max_participants":20}`
	req, _ := http.NewRequest(http.MethodPost, apiPrefix+"/session-templates", strings.NewReader(body))
	req.Header.Set("X-Test-Role", "admin")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	assert.NoError(s.T(), s.Mock.ExpectationsWereMet())
	data := gjson.Get(w.Body.String(), "data.day_of_week")
	assert.Equal(s.T(), int64(2), data.Int())
}

func (s *TestSuite) TestCreateSessionTemplateRejectsBadWeekday() {
	w := httptest.NewRecorder()
	body := `{"hall_id":1,"day_of_week":9,"start_time":"18:00","price":150000,"max_participants":20}`
	req, _ := http.NewRequest(http.MethodPost, apiPrefix+"/session-templates", strings.NewReader(body))
	req.Header.Set("X-Test-Role", "admin")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestCreateSessionDateFollowsBusinessClock() {
	// "today" for the date validator comes from the shared clock, fixed at
	// 2025-06-01 in SetupTest, not from the wall clock
	s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "halls"`)).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "branch_id", "name", "is_active"}).
			AddRow(1, 3, "Main Hall", true))
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sessions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	s.Mock.ExpectCommit()

	w := httptest.NewRecorder()
	body := `{"hall_id":1,"date":"2025-06-01","start_time":"18:00","price":150000,"max_participants":20}`
	req, _ := http.NewRequest(http.MethodPost, apiPrefix+"/sessions", strings.NewReader(body))
	req.Header.Set("X-Test-Role", "admin")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	assert.NoError(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestExpandRejectsReversedRange() {
	w := httptest.NewRecorder()
	body := `{"start_date":"2025-06-10","end_date":"2025-06-01"}`
	req, _ := http.NewRequest(http.MethodPost, apiPrefix+"/sessions/expand", strings.NewReader(body))
	req.Header.Set("X-Test-Role", "admin")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestCreateReservationRejectsZeroPeople() {
	w := httptest.NewRecorder()
	body := `{"session_id":1,"number_of_people":0}`
	req, _ := http.NewRequest(http.MethodPost, apiPrefix+"/reservations", strings.NewReader(body))
	req.Header.Set("X-Test-Role", "customer")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestCoinBalance() {
	s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(120))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, apiPrefix+"/coins/balance", nil)
	req.Header.Set("X-Test-Role", "customer")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]int64
	assert.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), int64(120), resp["balance"])
}

func (s *TestSuite) TestValidateDiscountAcceptsZeroAmount() {
	s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "discount_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, apiPrefix+"/discount-codes/validate?code=NOPE&amount=0", nil)
	req.Header.Set("X-Test-Role", "customer")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.False(s.T(), gjson.Get(w.Body.String(), "data.valid").Bool())
	assert.NoError(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestWebhookRejectsUnsignedPayload() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, apiPrefix+"/webhook/stripe", strings.NewReader(`{}`))
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func TestMainSuite(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
