package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/memberhub/backend/internal/auth"
	"github.com/memberhub/backend/internal/members"
	"github.com/memberhub/backend/internal/profiles"
	"github.com/memberhub/backend/internal/reporting"
	"go.uber.org/zap"
)

const callerContextKey = "memberhub_caller"

var (
	errMissingSessionResolver = errors.New("session resolver dependency required")
	errMissingMemberService   = errors.New("member service dependency required")
)

type SessionResolver interface {
	Resolve(request *http.Request) (auth.ResolvedIdentity, bool)
}

type MemberService interface {
	Register(ctx context.Context, request members.RegisterRequest) (members.Member, error)
	ListUsers(ctx context.Context, caller members.Caller) ([]profiles.Profile, error)
	CreateUser(ctx context.Context, caller members.Caller, request members.CreateRequest) (members.Member, error)
	EditUser(ctx context.Context, caller members.Caller, uid string, request members.EditRequest) error
	DeleteUser(ctx context.Context, caller members.Caller, uid string) error
}

type Dependencies struct {
	SessionResolver SessionResolver
	MemberService   MemberService
	Reporter        reporting.Reporter
	AllowedOrigins  []string
	Logger          *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.SessionResolver == nil {
		return nil, errMissingSessionResolver
	}
	if deps.MemberService == nil {
		return nil, errMissingMemberService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = reporting.NewNoop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins...))

	handler := &httpHandler{
		resolver: deps.SessionResolver,
		members:  deps.MemberService,
		reporter: reporter,
		logger:   logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.POST("/register", handler.handleRegister)

	authenticated := router.Group("/")
	authenticated.Use(handler.resolveSession)
	authenticated.GET("/get-all-users", handler.handleListUsers)

	admin := authenticated.Group("/")
	admin.Use(handler.requireAdmin)
	admin.POST("/add_user", handler.handleCreateUser)
	admin.PUT("/edit_user/:uid", handler.handleEditUser)
	admin.DELETE("/delete-user/:uid", handler.handleDeleteUser)

	return router, nil
}

type httpHandler struct {
	resolver SessionResolver
	members  MemberService
	reporter reporting.Reporter
	logger   *zap.Logger
}

func corsMiddleware(allowedOrigins ...string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || containsWildcard(allowedOrigins) {
		// Cookies require the concrete origin to be echoed back instead of "*".
		config.AllowOriginFunc = func(string) bool { return true }
	} else {
		config.AllowOrigins = allowedOrigins
	}
	return cors.New(config)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// resolveSession attaches the caller to the context; unauthenticated requests
// still proceed and are rejected by the operations that need an identity.
func (h *httpHandler) resolveSession(c *gin.Context) {
	identity, ok := h.resolver.Resolve(c.Request)
	c.Set(callerContextKey, members.Caller{Identity: identity, Authenticated: ok})
	c.Next()
}

// requireAdmin rejects non-admin callers before the request body is read.
func (h *httpHandler) requireAdmin(c *gin.Context) {
	caller := callerFromContext(c)
	if auth.RequireAdmin(caller.Identity, caller.Authenticated) == auth.Denied {
		h.logger.Info("admin access denied",
			zap.String("path", c.FullPath()),
			zap.Bool("authenticated", caller.Authenticated),
			zap.String("uid", caller.Identity.UID))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"msg":   messageForKind(members.KindAuthorization),
			"error": "unauthorized",
		})
		return
	}
	c.Next()
}

func callerFromContext(c *gin.Context) members.Caller {
	value, exists := c.Get(callerContextKey)
	if !exists {
		return members.Anonymous
	}
	caller, ok := value.(members.Caller)
	if !ok {
		return members.Anonymous
	}
	return caller
}
