package di

import (
	"context"
	"fmt"
	"net/http"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/internal/repository"
	"membership-platform/backend/internal/service"
	"membership-platform/backend/pkg/cache"
	"membership-platform/backend/pkg/config"
	"membership-platform/backend/pkg/health"
	"membership-platform/backend/pkg/jwt"
	"membership-platform/backend/pkg/logger"
	"membership-platform/backend/pkg/resilience"
	"membership-platform/backend/pkg/secrets"
	"membership-platform/backend/shared/observability"
	"membership-platform/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	Config           *config.Config
	DB               *gorm.DB
	Logger           *logger.Logger
	Redis            *redis.RedisClient
	Secrets          secrets.Manager
	JWTService       *jwt.Service
	IdentityResolver *service.IdentityResolver
	UserService      *service.UserService
	ChatService      *service.ChatService
	ChatMetrics      *observability.ChatMetrics
	Health           *health.Checker
	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler
}

// New creates a new dependency injection container.
// Background workers (caches, secret refresh) stop when ctx is done.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Container, error) {
	if cfg == nil {
		cfg = config.Get()
	}
	if log == nil {
		log = logger.New(logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format))
	}

	secretManager, err := secrets.NewVaultManager(ctx, secrets.VaultConfig{
		Address:     cfg.Vault.Address,
		Token:       cfg.Vault.Token,
		Namespace:   cfg.Vault.Namespace,
		SecretsPath: cfg.Vault.SecretsPath,
		Enabled:     cfg.Vault.Enabled,
		MaxRetries:  2,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets manager: %w", err)
	}

	openAIKey := secretManager.GetSecretWithDefault(ctx, secrets.KeyOpenAIAPIKey, cfg.OpenAI.APIKey)
	jwtSecret := secretManager.GetSecretWithDefault(ctx, secrets.KeyJWTSecret, cfg.JWT.Secret)

	chatMetrics, err := observability.NewChatMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create chat metrics: %w", err)
	}

	checker := health.NewChecker(log, cfg.Database.Timeout)
	checker.RegisterPingCheck("database", true, func(ctx context.Context) error {
		return config.Ping(ctx, db)
	})

	// Repositories
	users := repository.NewGormUserRepository(db)
	conversations := repository.NewGormConversationRepository(db)
	messages := repository.NewGormMessageRepository(db)
	profiles := repository.NewGormProfileRepository(db)
	subscriptions := repository.NewGormSubscriptionRepository(db)

	var agents repository.AgentRepository = repository.NewGormAgentRepository(db)
	if cfg.Cache.Enabled {
		agents = repository.NewCachedAgentRepository(agents, cache.New[string, models.Agent](ctx, cache.Options{
			TTL:         cfg.Cache.TTL,
			MaxSize:     cfg.Cache.MaxSize,
			PurgeWindow: cfg.Cache.PurgeWindow,
		}))
	}

	var usage repository.UsageStore
	var redisClient *redis.RedisClient
	switch cfg.Quota.Backend {
	case "redis":
		redisClient = redis.NewRedisClient(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		usage = repository.NewRedisUsageStore(redisClient)
		checker.RegisterPingCheck("redis", true, redisClient.Ping)
	case "postgres", "":
		usage = repository.NewGormUsageStore(db)
	default:
		return nil, fmt.Errorf("unknown quota backend %q", cfg.Quota.Backend)
	}

	// Services
	jwtService := jwt.NewService(jwtSecret, cfg.JWT.ExpiryHours)
	identity := service.NewIdentityResolver(jwtService, users)
	userService := service.NewUserService(users, jwtService)

	openAI := service.NewOpenAIGateway(service.OpenAIConfig{
		APIKey:       openAIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		DefaultModel: cfg.OpenAI.DefaultModel,
		Timeout:      cfg.OpenAI.Timeout,
		MaxTokens:    cfg.OpenAI.MaxTokens,
		Temperature:  cfg.OpenAI.Temperature,
		FallbackText: cfg.Quota.FallbackMessage,
	}, chatMetrics)

	var gateway service.Gateway = openAI
	if cfg.OpenAI.BreakerThreshold > 0 {
		gateway = service.NewBreakerGateway(openAI, resilience.NewCircuitBreaker(resilience.Config{
			Name:             "openai",
			FailureThreshold: uint(cfg.OpenAI.BreakerThreshold),
			SuccessThreshold: 1,
			Cooldown:         cfg.OpenAI.BreakerCooldown,
		}, log))
	}

	chatService := service.NewChatService(service.ChatDeps{
		Identity: identity,
		Entitlements: service.NewEntitlementResolver(subscriptions, service.EntitlementConfig{
			FreeDaily:      cfg.Quota.FreeDaily,
			PremiumDaily:   cfg.Quota.PremiumDaily,
			PremiumPlanIDs: cfg.Quota.PremiumPlanIDs,
			ActiveStatus:   cfg.Quota.ActiveStatus,
		}),
		Quota:         service.NewQuotaLedger(usage, cfg.Quota.FeatureKey, cfg.Location()),
		Conversations: conversations,
		Messages:      messages,
		Agents:        agents,
		Profiles:      profiles,
		Gateway:       gateway,
		Metrics:       chatMetrics,
	}, service.ChatConfig{
		HistoryLimit:   cfg.Quota.HistoryLimit,
		TitleMaxLength: cfg.Quota.TitleMaxLength,
		Strict:         cfg.Quota.Strict,
	})

	if !gateway.Configured() {
		log.Warn("OpenAI API key not configured, chat requests will fail")
	}
	checker.RegisterCheck("openai", false, func(context.Context) (health.Status, string, error) {
		if !gateway.Configured() {
			return health.StatusDegraded, "API key not configured", nil
		}
		return health.StatusUp, "API key configured", nil
	})

	return &Container{
		Config:           cfg,
		DB:               db,
		Logger:           log,
		Redis:            redisClient,
		Secrets:          secretManager,
		JWTService:       jwtService,
		IdentityResolver: identity,
		UserService:      userService,
		ChatService:      chatService,
		ChatMetrics:      chatMetrics,
		Health:           checker,
	}, nil
}

// Close releases connections held by the container
func (c *Container) Close() error {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
