package app

import (
	"context"
	"net/http"
	"time"

	"go-payroll/internal/auth"
	"go-payroll/internal/config"
	"go-payroll/internal/employee"
	"go-payroll/internal/jobqueue"
	"go-payroll/internal/middleware"
	"go-payroll/internal/payroll"
	"go-payroll/internal/rbac"
	"go-payroll/internal/rbac/infra"
	"go-payroll/internal/rbac/rbac_http"
	"go-payroll/internal/realtime"
	"go-payroll/internal/shared/cache"
	"go-payroll/internal/shared/counter"
	"go-payroll/internal/shared/token"
	"go-payroll/internal/store"
	"go-payroll/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// modules exposes what the API process needs after routing is in place.
type modules struct {
	employees employee.Repository
	queue     *jobqueue.Queue
}

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	rdb redis.Cmdable,
	hub *realtime.Hub,
	logger *zap.Logger,
) (*modules, error) {
	// --- Infrastructure ---
	st := store.New(rdb)
	responses := cache.New(rdb, cfg.CacheTTL, logger)
	queue := jobqueue.New(rdb, "")
	tokens := token.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)

	// --- Repositories ---
	userRepo := user.NewRepository(st)
	employeeRepo := employee.NewRepository(st)
	payrollRepo := payroll.NewRepository(st)
	counterRepo := counter.NewRepository(rdb)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return nil, err
	}
	rbacService, err := rbac.NewService(rbac.NewRepository(), enforcer, logger)
	if err != nil {
		return nil, err
	}

	// --- Services ---
	userService := user.NewService(userRepo, logger)
	authService := auth.NewService(userService, userRepo, tokens, logger)
	employeeService := employee.NewService(employeeRepo, counterRepo, responses, logger)
	payrollService := payroll.NewService(payrollRepo, employeeRepo, queue, responses, logger)

	authn := middleware.NewAuthenticator(tokens, identityLoader(userService), logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Secure: cfg.IsProduction(),
		TTL:    cfg.JWTExpiresIn,
	}, logger)
	userHandler := user.NewHandler(userService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	payrollHandler := payroll.NewHandler(payrollService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Routes Registration ---
	router.GET("/health", health)
	router.GET("/ws", hub.ServeWS)

	api := router.Group("/api")
	{
		auth.RegisterRoutes(api, authHandler, authn)
		user.RegisterRoutes(api, userHandler, authn, rbacService)
		employee.RegisterRoutes(api, employeeHandler, authn, rbacService)
		payroll.RegisterRoutes(api, payrollHandler, authn, rbacService, rdb)
		rbac_http.RegisterRoutes(api, rbacHandler, authn)
	}

	return &modules{employees: employeeRepo, queue: queue}, nil
}

// identityLoader resolves the account behind a token; the password hash
// never leaves the user service.
func identityLoader(users user.Service) middleware.IdentityLoader {
	return middleware.IdentityLoaderFunc(func(ctx context.Context, userID string) (middleware.Identity, error) {
		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return middleware.Identity{}, err
		}
		return middleware.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, nil
	})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
