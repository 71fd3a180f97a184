package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DevenGibbs/starter-restaurant-reservation/config"
	"github.com/DevenGibbs/starter-restaurant-reservation/controllers"
	"github.com/DevenGibbs/starter-restaurant-reservation/hub"
	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
	"github.com/DevenGibbs/starter-restaurant-reservation/router"
	"github.com/DevenGibbs/starter-restaurant-reservation/store"
)

// Monday 2030-01-07 12:00 in New York; 2030-01-08 is a Tuesday.
var testNow = func() time.Time {
	loc, _ := time.LoadLocation("America/New_York")
	return time.Date(2030, 1, 7, 12, 0, 0, 0, loc)
}()

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// setupTestDB membuka SQLite in-memory terpisah untuk setiap test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func testRules() reservation.Rules {
	rules := reservation.DefaultRules(testNow.Location())
	rules.Now = func() time.Time { return testNow }
	return rules
}

// setupFloorRouter memasang route reservasi dan meja dengan jam tetap
func setupFloorRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewGormStore(db)
	h := hub.New()

	r := gin.New()
	group := r.Group("/")
	router.RegisterReservationRoutes(group, controllers.NewReservationController(st, testRules(), h))
	router.RegisterTableRoutes(group, controllers.NewTableController(st, h))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func validReservation() map[string]any {
	return map[string]any{
		"first_name":       "Ada",
		"last_name":        "Lovelace",
		"mobile_number":    "555-123-4567",
		"reservation_date": "2030-01-09",
		"reservation_time": "18:00",
		"people":           2,
	}
}

func with(base map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[key] = value
	return out
}

func without(base map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

type reservationView struct {
	ID              uint   `json:"reservation_id"`
	FirstName       string `json:"first_name"`
	MobileNumber    string `json:"mobile_number"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	People          int    `json:"people"`
	Status          string `json:"status"`
}

type tableView struct {
	ID            uint   `json:"table_id"`
	TableName     string `json:"table_name"`
	Capacity      int    `json:"capacity"`
	ReservationID *uint  `json:"reservation_id"`
}

func createReservation(t *testing.T, r http.Handler, payload map[string]any) reservationView {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/reservations", map[string]any{"data": payload})
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)
	var rv reservationView
	require.NoError(t, json.Unmarshal(resp.Data, &rv))
	return rv
}
