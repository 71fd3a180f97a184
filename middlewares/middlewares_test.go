package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevenGibbs/starter-restaurant-reservation/models"
	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
	"github.com/DevenGibbs/starter-restaurant-reservation/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type finderFunc func(ctx context.Context, id uint) (*models.Reservation, error)

func (f finderFunc) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	return f(ctx, id)
}

func TestReservationPayload(t *testing.T) {
	r := gin.New()
	r.POST("/", ReservationPayload(), func(c *gin.Context) {
		c.JSON(http.StatusOK, RequestFrom(c).Payload)
	})

	tests := []struct {
		name string
		body string
		code int
		want map[string]any
	}{
		{"wrapped", `{"data":{"first_name":"Ada"}}`, http.StatusOK, map[string]any{"first_name": "Ada"}},
		{"bare", `{"first_name":"Ada"}`, http.StatusOK, map[string]any{"first_name": "Ada"}},
		{"empty", ``, http.StatusOK, map[string]any{}},
		{"array", `[1,2]`, http.StatusBadRequest, nil},
		{"broken", `{"data":`, http.StatusBadRequest, nil},
		{"siblings of data", `{"data":{"first_name":"Ada"},"people":9,"status":"seated"}`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.want != nil {
				var got map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeDataNamesSiblings(t *testing.T) {
	r := gin.New()
	r.POST("/", ReservationPayload(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"seated","data":{"people":2},"people":9}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid field(s): people, status")
}

func TestReservationIDAndExists(t *testing.T) {
	finder := finderFunc(func(_ context.Context, id uint) (*models.Reservation, error) {
		if id == 7 {
			return &models.Reservation{ID: 7, Status: "booked"}, nil
		}
		return nil, reservation.NotFound("Reservation %d cannot be found.", id)
	})

	r := gin.New()
	handlers := append([]gin.HandlerFunc{ReservationID("reservation_id")}, Pipeline(reservation.Exists(finder))...)
	handlers = append(handlers, func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "ok", RequestFrom(c).Record)
	})
	r.GET("/reservations/:reservation_id", handlers...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/7", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Reservation 99 cannot be found.", decode(t, w).Message)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/abc", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Reservation abc cannot be found.", decode(t, w).Message)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) reservation.Step {
		return func(context.Context, *reservation.Request) error {
			ran = append(ran, name)
			return err
		}
	}

	r := gin.New()
	handlers := Pipeline(step("a", nil), step("b", reservation.Rule("closed")), step("c", nil))
	handlers = append(handlers, func(c *gin.Context) { ran = append(ran, "handler") })
	r.GET("/", handlers...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"a", "b"}, ran)
	env := decode(t, w)
	assert.False(t, env.Status)
	assert.Equal(t, "closed", env.Message)
}

func TestPipelineUnexpectedErrorIs500(t *testing.T) {
	r := gin.New()
	r.GET("/", Pipeline(func(context.Context, *reservation.Request) error {
		return assert.AnError
	})...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthAndRoleCheck(t *testing.T) {
	utils.ConfigureJWT("middleware-secret", time.Hour)

	r := gin.New()
	r.GET("/admin", AuthMiddleware(), RoleCheck("host"), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	staff, err := utils.GenerateToken(1, "staff")
	require.NoError(t, err)
	host, err := utils.GenerateToken(2, "host")
	require.NoError(t, err)
	admin, err := utils.GenerateToken(3, "admin")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call(staff))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage"))
	assert.Equal(t, http.StatusForbidden, call("Bearer "+staff))
	assert.Equal(t, http.StatusOK, call("Bearer "+host))
	assert.Equal(t, http.StatusOK, call("Bearer "+admin))
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	utils.ConfigureJWT("middleware-secret", time.Hour)
	token, err := utils.GenerateToken(4, "staff")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/ws", WebSocketAuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("role"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff", w.Body.String())
}

func TestCacheServesAndFlushes(t *testing.T) {
	hits := 0
	store := cache.New(time.Minute, time.Minute)

	r := gin.New()
	r.Use(NewResponseCache(store, time.Minute).Middleware())
	r.GET("/items", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})
	r.POST("/items", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
		return w
	}

	first := get()
	second := get()
	assert.Equal(t, 1, hits)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/items", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	get()
	assert.Equal(t, 2, hits)
}

func TestCacheFlushDuringReadSkipsStore(t *testing.T) {
	hits := 0
	rc := NewResponseCache(cache.New(time.Minute, time.Minute), time.Minute)

	r := gin.New()
	r.Use(rc.Middleware())
	r.GET("/items", func(c *gin.Context) {
		hits++
		if hits == 1 {
			// a write elsewhere lands while this read is in flight
			rc.Flush()
		}
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
		return w
	}

	get()
	w := get()
	assert.Equal(t, 2, hits)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"hits":2}`, w.Body.String())

	w = get()
	assert.Equal(t, 2, hits)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)

	r := gin.New()
	r.GET("/", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), LoggerMiddleware(), SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares("http://localhost:3000"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
