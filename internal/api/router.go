package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/izposoja/internal/alloc"
	"github.com/erazemk/izposoja/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sqlx.DB, gateway *alloc.Gateway, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{Gateway: gateway}
	transactionsHandler := &TransactionsHandler{Gateway: gateway}
	resourcesHandler := &ResourcesHandler{Gateway: gateway}
	reservationsHandler := &ReservationsHandler{Gateway: gateway}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleStaff)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: read (all roles), write (staff+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireStaff(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/low-stock", authMW(http.HandlerFunc(itemsHandler.LowStock)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireStaff(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireStaff(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/status", authMW(requireStaff(http.HandlerFunc(itemsHandler.SetStatus))))
	mux.Handle("POST /api/items/{id}/stock", authMW(requireStaff(http.HandlerFunc(itemsHandler.AddStock))))

	// Maintenance (staff+).
	mux.Handle("GET /api/items/{id}/maintenance", authMW(http.HandlerFunc(itemsHandler.ListMaintenance)))
	mux.Handle("POST /api/items/{id}/maintenance", authMW(requireStaff(http.HandlerFunc(itemsHandler.ScheduleMaintenance))))
	mux.Handle("POST /api/maintenance/{id}/complete", authMW(requireStaff(http.HandlerFunc(itemsHandler.CompleteMaintenance))))

	// Checkouts and history (all roles; scoped by the gateway).
	mux.Handle("POST /api/checkouts", authMW(http.HandlerFunc(transactionsHandler.Checkout)))
	mux.Handle("GET /api/transactions", authMW(http.HandlerFunc(transactionsHandler.List)))
	mux.Handle("GET /api/transactions/overdue", authMW(http.HandlerFunc(transactionsHandler.Overdue)))
	mux.Handle("GET /api/transactions/{id}", authMW(http.HandlerFunc(transactionsHandler.Get)))
	mux.Handle("POST /api/transactions/{id}/return", authMW(http.HandlerFunc(transactionsHandler.Return)))
	mux.Handle("POST /api/transactions/{id}/lost", authMW(requireStaff(http.HandlerFunc(transactionsHandler.MarkLost))))

	// Resources: read (all roles), write (staff+).
	mux.Handle("GET /api/resources", authMW(http.HandlerFunc(resourcesHandler.List)))
	mux.Handle("POST /api/resources", authMW(requireStaff(http.HandlerFunc(resourcesHandler.Create))))
	mux.Handle("GET /api/resources/{id}", authMW(http.HandlerFunc(resourcesHandler.Get)))
	mux.Handle("PUT /api/resources/{id}", authMW(requireStaff(http.HandlerFunc(resourcesHandler.Update))))
	mux.Handle("DELETE /api/resources/{id}", authMW(requireStaff(http.HandlerFunc(resourcesHandler.Delete))))
	mux.Handle("PUT /api/resources/{id}/status", authMW(requireStaff(http.HandlerFunc(resourcesHandler.SetStatus))))

	// Reservations (all roles; approval checked by the gateway).
	mux.Handle("GET /api/reservations", authMW(http.HandlerFunc(reservationsHandler.List)))
	mux.Handle("POST /api/reservations", authMW(http.HandlerFunc(reservationsHandler.Create)))
	mux.Handle("PUT /api/reservations/{id}/status", authMW(http.HandlerFunc(reservationsHandler.UpdateStatus)))

	return mux
}
