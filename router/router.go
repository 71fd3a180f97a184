package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/DevenGibbs/starter-restaurant-reservation/config"
	"github.com/DevenGibbs/starter-restaurant-reservation/controllers"
	"github.com/DevenGibbs/starter-restaurant-reservation/hub"
	"github.com/DevenGibbs/starter-restaurant-reservation/metrics"
	"github.com/DevenGibbs/starter-restaurant-reservation/middlewares"
	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
	"github.com/DevenGibbs/starter-restaurant-reservation/store"
)

// SetupRouter wires every route. floor may be nil when live updates are
// not wanted.
func SetupRouter(db *gorm.DB, cfg *config.Config, floor *hub.Hub) (*gin.Engine, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}
	if floor == nil {
		floor = hub.New()
	}
	metrics.Register()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.Server.AllowedOrigin))
	if cfg.Server.RateLimitPerSec > 0 {
		r.Use(middlewares.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst).RateLimit())
	}

	st := store.NewGormStore(db)

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(db)
	reservationCtrl := controllers.NewReservationController(st, rules, floor)
	tableCtrl := controllers.NewTableController(st, floor)
	floorHandler := controllers.NewFloorHandler(floor, cfg.Server.AllowedOrigin)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	floorGroup := r.Group("/")
	if cfg.Server.CacheTTLSeconds > 0 {
		ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
		responses := middlewares.NewResponseCache(cache.New(ttl, 2*ttl), ttl)
		// Writes on other instances arrive as hub events.
		floor.OnEvent(func(string) { responses.Flush() })
		floorGroup.Use(responses.Middleware())
	}
	RegisterReservationRoutes(floorGroup, reservationCtrl)
	RegisterTableRoutes(floorGroup, tableCtrl)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())
	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/users", middlewares.RoleCheck("admin"), userCtrl.GetAllUsers)
	auth.POST("/users", middlewares.RoleCheck("admin"), userCtrl.CreateUser)

	// WebSocket endpoint dengan middleware khusus
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/floor", floorHandler.Serve)
	}

	return r, nil
}

// RegisterReservationRoutes mounts the reservation endpoints, each behind
// its validation chain.
func RegisterReservationRoutes(rg *gin.RouterGroup, rc *controllers.ReservationController) {
	id := middlewares.ReservationID("reservation_id")
	body := middlewares.ReservationPayload()

	rg.GET("/reservations", rc.ListReservations)
	rg.POST("/reservations", chain([]gin.HandlerFunc{body}, rc.CreateChain(), rc.CreateReservation)...)
	rg.GET("/reservations/:reservation_id", chain([]gin.HandlerFunc{id}, rc.ReadChain(), rc.GetReservation)...)
	rg.PUT("/reservations/:reservation_id", chain([]gin.HandlerFunc{id, body}, rc.UpdateChain(), rc.UpdateReservation)...)
	rg.PUT("/reservations/:reservation_id/status", chain([]gin.HandlerFunc{id, body}, rc.StatusChain(), rc.UpdateReservationStatus)...)
	rg.DELETE("/reservations/:reservation_id", chain([]gin.HandlerFunc{id}, rc.DeleteChain(), rc.DeleteReservation)...)
}

func RegisterTableRoutes(rg *gin.RouterGroup, tc *controllers.TableController) {
	rg.GET("/tables", tc.GetAllTables)
	rg.POST("/tables", tc.CreateTable)
	rg.GET("/tables/:table_id", tc.GetTableByID)
	rg.PUT("/tables/:table_id/seat", tc.SeatTable)
	rg.DELETE("/tables/:table_id/seat", tc.FinishTable)
}

func chain(pre []gin.HandlerFunc, p reservation.Pipeline, handler gin.HandlerFunc) []gin.HandlerFunc {
	handlers := append([]gin.HandlerFunc{}, pre...)
	handlers = append(handlers, middlewares.Pipeline(p...)...)
	return append(handlers, handler)
}
