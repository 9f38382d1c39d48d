package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/cache"
	"github.com/SG-STD/ofox-backend/internal/config"
	"github.com/SG-STD/ofox-backend/internal/middleware"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/ratelimit"
	"github.com/SG-STD/ofox-backend/internal/service"
)

type AuthAPI interface {
	Login(ctx context.Context, input service.LoginInput) (service.LoginResult, error)
	Authenticate(ctx context.Context, token string) (service.Principal, error)
	Logout(ctx context.Context, p service.Principal) error
	ListSessions(ctx context.Context, user models.User) ([]models.Session, error)
	RevokeSession(ctx context.Context, user models.User, sessionID string) error
}

type RegistrationAPI interface {
	PreRegister(ctx context.Context, input service.PreRegisterInput) error
	Verify(ctx context.Context, email, code string) (models.User, error)
	ResendCode(ctx context.Context, email string) error
}

type ProfileAPI interface {
	GetUserData(ctx context.Context, userID string) (cache.Profile, error)
	UpdateProfile(ctx context.Context, user models.User, input service.UpdateProfileInput) (cache.Profile, error)
	UploadPicture(ctx context.Context, userID string, data []byte) (string, error)
	SetFCMToken(ctx context.Context, userID, token string) error
	Presence(ctx context.Context, userID string) (service.Presence, error)
	Directory(ctx context.Context, me models.User, query string, limit, offset int) ([]cache.Profile, error)
}

type ChatAPI interface {
	Open(ctx context.Context, me models.User, peerHandle string) (models.Chat, error)
	Send(ctx context.Context, me models.User, chatID, text string) (models.Message, error)
	Recent(ctx context.Context, me models.User, limit int) ([]models.Chat, error)
	Messages(ctx context.Context, me models.User, chatID string, limit int) ([]models.Message, error)
}

type LegalAPI interface {
	Document(ctx context.Context, name string) (string, error)
}

// Limiters gate the action dispatch endpoints, one window per endpoint.
type Limiters struct {
	Auth         ratelimit.Limiter
	Verification ratelimit.Limiter
	Data         ratelimit.Limiter
}

// HealthCheck reports a dependency as "ok" or "error" on /healthz.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Auth         AuthAPI
	Registration RegistrationAPI
	Profiles     ProfileAPI
	Chats        ChatAPI
	Legal        LegalAPI
	Bootstrap    middleware.ReadyChecker
	Limiters     Limiters
	Checks       map[string]HealthCheck
}

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	auth         AuthAPI
	registration RegistrationAPI
	profiles     ProfileAPI
	chats        ChatAPI
	legal        LegalAPI
	bootstrap    middleware.ReadyChecker
	limiters     Limiters
	checks       map[string]HealthCheck
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Deps) HandlerSet {
	return HandlerSet{
		log:          log,
		cfg:          cfg,
		auth:         deps.Auth,
		registration: deps.Registration,
		profiles:     deps.Profiles,
		chats:        deps.Chats,
		legal:        deps.Legal,
		bootstrap:    deps.Bootstrap,
		limiters:     deps.Limiters,
		checks:       deps.Checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.GET("/legal/:doc", h.LegalDocument)

	gated := v1.Group("")
	gated.Use(middleware.RequireBootstrap(h.bootstrap))
	gated.POST("/auth", h.AuthAction)
	gated.POST("/verification", h.VerificationAction)

	protected := v1.Group("")
	protected.Use(
		middleware.Auth(h.auth),
		middleware.RequireActive(),
	)
	protected.POST("/data", middleware.RequireBootstrap(h.bootstrap), h.DataAction)
	protected.POST("/logout", h.Logout)
	protected.GET("/sessions", h.ListSessions)
	protected.DELETE("/sessions/:id", h.RevokeSession)
	protected.POST("/profile/picture", h.UploadProfilePicture)
	protected.PUT("/profile/fcm-token", h.SetFCMToken)
	protected.GET("/users", h.ListUsers)
	protected.GET("/users/:id/presence", h.Presence)
	protected.POST("/chats", h.OpenChat)
	protected.GET("/chats", h.RecentChats)
	protected.GET("/chats/:id/messages", h.ListMessages)
	protected.POST("/chats/:id/messages", h.SendMessage)
}
