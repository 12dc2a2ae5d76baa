package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/savesmart/internal/handler"
	"github.com/dukerupert/savesmart/internal/middleware"
	"github.com/dukerupert/savesmart/internal/notify"
	"github.com/dukerupert/savesmart/internal/pricing"
	"github.com/dukerupert/savesmart/internal/push"
	"github.com/dukerupert/savesmart/internal/receipt"
	"github.com/dukerupert/savesmart/internal/shoppinglist"
	"github.com/dukerupert/savesmart/internal/store"
	ws "github.com/dukerupert/savesmart/internal/websocket"
)

// Rate limits: auth attempts per client address per minute, and price
// submissions per user per hour.
const (
	authRateLimit  = 10
	priceRateLimit = 30
)

// Config carries the optional integrations.
type Config struct {
	BaseURL         string
	Receipts        receipt.Config
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	catalogH      *handler.CatalogHandler
	priceH        *handler.PriceHandler
	purchaseH     *handler.PurchaseHandler
	shoppingListH *handler.ShoppingListHandler
	favoriteH     *handler.FavoriteHandler
	notificationH *handler.NotificationHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	itemStore := store.NewItemStore(db)
	locationStore := store.NewLocationStore(db)
	priceStore := store.NewPriceStore(db)
	purchaseStore := store.NewPurchaseStore(db)
	favoriteStore := store.NewFavoriteStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)
	stateStore := store.NewStateStore(db)

	calc := pricing.NewCalculator(priceStore, logger.With("component", "pricing"))
	comparer := pricing.NewComparer(priceStore, logger.With("component", "compare"))

	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if !pushSvc.Enabled() {
		logger.Warn("VAPID keys not set, web push disabled")
	}
	receipts := receipt.New(cfg.Receipts)
	if !receipts.Enabled() {
		logger.Warn("S3 not configured, receipt uploads disabled")
	}

	notifier := notify.New(favoriteStore, notificationStore, pushStore, hub, pushSvc, logger.With("component", "notify"))
	lists := shoppinglist.NewRegistry(func(scope string) shoppinglist.Storage {
		return shoppinglist.NewKVStorage(stateStore, scope)
	})

	secure := strings.HasPrefix(cfg.BaseURL, "https://")

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, secure, logger.With("component", "auth")),
		catalogH:      handler.NewCatalogHandler(itemStore, locationStore, priceStore, calc, logger.With("component", "catalog")),
		priceH:        handler.NewPriceHandler(priceStore, itemStore, locationStore, receipts, notifier, logger.With("component", "price")),
		purchaseH:     handler.NewPurchaseHandler(purchaseStore, itemStore, locationStore, calc, logger.With("component", "purchase")),
		shoppingListH: handler.NewShoppingListHandler(lists, itemStore, comparer, logger.With("component", "shopping_list")),
		favoriteH:     handler.NewFavoriteHandler(favoriteStore, logger.With("component", "favorite")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		sessionStore:  sessionStore,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Auth
	authLimit := middleware.RateLimit(s.rateLimiter, middleware.Scoped("auth", middleware.ByIP), authRateLimit, time.Minute)
	mux.Handle("POST /api/auth/register", authLimit(http.HandlerFunc(s.authH.Register)))
	mux.Handle("POST /api/auth/login", authLimit(http.HandlerFunc(s.authH.Login)))
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.Handle("GET /api/auth/me", middleware.RequireUser(http.HandlerFunc(s.authH.Me)))

	// Catalog
	mux.HandleFunc("GET /api/items", s.catalogH.ListItems)
	mux.Handle("POST /api/items", middleware.RequireUser(http.HandlerFunc(s.catalogH.CreateItem)))
	mux.HandleFunc("GET /api/items/{id}/average", s.catalogH.ItemAverage)
	mux.HandleFunc("GET /api/items/{id}/savings", s.catalogH.ItemSavings)
	mux.HandleFunc("GET /api/cities", s.catalogH.ListCities)
	mux.HandleFunc("GET /api/locations", s.catalogH.ListLocations)
	mux.HandleFunc("GET /api/locations/{id}", s.catalogH.GetLocation)

	// Prices
	priceLimit := middleware.RateLimit(s.rateLimiter, middleware.Scoped("prices", middleware.ByUser), priceRateLimit, time.Hour)
	mux.Handle("POST /api/prices", middleware.RequireUser(priceLimit(http.HandlerFunc(s.priceH.Submit))))
	mux.Handle("GET /api/submissions", middleware.RequireUser(http.HandlerFunc(s.priceH.Submissions)))

	// Shopping list (per device)
	mux.HandleFunc("GET /api/shopping-list", s.shoppingListH.List)
	mux.HandleFunc("POST /api/shopping-list", s.shoppingListH.Add)
	mux.HandleFunc("DELETE /api/shopping-list", s.shoppingListH.Clear)
	mux.HandleFunc("GET /api/shopping-list/compare", s.shoppingListH.Compare)
	mux.HandleFunc("PUT /api/shopping-list/{id}", s.shoppingListH.SetQuantity)
	mux.HandleFunc("DELETE /api/shopping-list/{id}", s.shoppingListH.Remove)

	// Signed-in routes
	user := http.NewServeMux()
	s.registerUserRoutes(user)
	for _, prefix := range []string{"/api/purchases", "/api/favorites", "/api/notifications", "/api/push/"} {
		mux.Handle(prefix, middleware.RequireUser(user))
		if !strings.HasSuffix(prefix, "/") {
			mux.Handle(prefix+"/", middleware.RequireUser(user))
		}
	}
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	// WebSocket
	mux.Handle("GET /ws", middleware.RequireUser(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))

	var h http.Handler = mux
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = middleware.EnsureDevice(h)
	h = middleware.Authenticate(s.sessionStore, s.logger.With("component", "auth"))(h)
	return h
}

func (s *Server) registerUserRoutes(mux *http.ServeMux) {
	// Purchases
	mux.HandleFunc("POST /api/purchases", s.purchaseH.Create)
	mux.HandleFunc("GET /api/purchases", s.purchaseH.List)
	mux.HandleFunc("GET /api/purchases/summary", s.purchaseH.Summary)
	mux.HandleFunc("DELETE /api/purchases/{id}", s.purchaseH.Delete)

	// Favorites
	mux.HandleFunc("GET /api/favorites", s.favoriteH.List)
	mux.HandleFunc("POST /api/favorites", s.favoriteH.Add)
	mux.HandleFunc("DELETE /api/favorites", s.favoriteH.Clear)
	mux.HandleFunc("POST /api/favorites/toggle", s.favoriteH.Toggle)
	mux.HandleFunc("GET /api/favorites/check", s.favoriteH.Check)
	mux.HandleFunc("GET /api/favorites/locations/{id}", s.favoriteH.ListByLocation)
	mux.HandleFunc("GET /api/favorites/items/{id}", s.favoriteH.ListByItem)
	mux.HandleFunc("DELETE /api/favorites/{location_id}/{item_id}", s.favoriteH.Remove)

	// Notifications
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("DELETE /api/notifications", s.notificationH.Clear)
	mux.HandleFunc("GET /api/notifications/unread-count", s.notificationH.UnreadCount)
	mux.HandleFunc("PUT /api/notifications/read-all", s.notificationH.MarkAllRead)
	mux.HandleFunc("PUT /api/notifications/{id}/read", s.notificationH.MarkRead)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.notificationH.Delete)

	// Push subscriptions
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.UnsubscribeEndpoint)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
