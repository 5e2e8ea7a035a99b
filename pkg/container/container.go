package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"bloggy-backend/internal/config"
	"bloggy-backend/internal/domains/entry"
	"bloggy-backend/internal/domains/feed"
	"bloggy-backend/internal/domains/message"
	"bloggy-backend/internal/domains/notification"
	"bloggy-backend/internal/domains/tag"
	"bloggy-backend/internal/domains/user"
	"bloggy-backend/internal/infrastructure/cache"
	"bloggy-backend/internal/infrastructure/database"
	"bloggy-backend/internal/shared/content"
	"bloggy-backend/pkg/jwt"
)

// Container wires every layer together at startup.
type Container struct {
	Config *config.Config

	DB    *database.PostgresDB
	Redis *cache.RedisClient

	JWTManager *jwt.Manager
	Formatter  *content.Formatter

	UserService         user.Service
	TagService          tag.Service
	EntryService        entry.Service
	NotificationService notification.Service
	FeedService         feed.Service
	MessageService      message.Service

	UserHandler         *user.Handler
	TagHandler          *tag.Handler
	EntryHandler        *entry.Handler
	NotificationHandler *notification.Handler
	FeedHandler         *feed.Handler
	MessageHandler      *message.Handler
}

func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	// ==================== Infrastructure ====================
	c.DB = database.NewPostgresDB(&cfg.Database)
	if err := c.DB.Connect(ctx); err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := c.DB.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	c.Redis = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		// Points fall back to the database when the cache is down.
		log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		c.Redis = nil
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	c.Formatter = content.NewFormatter()

	// ==================== Repositories ====================
	userRepo := user.NewRepository(c.DB.Pool)
	tagRepo := tag.NewRepository(c.DB.Pool)
	entryRepo := entry.NewRepository(c.DB.Pool, tagRepo)
	notificationRepo := notification.NewRepository(c.DB.Pool)
	messageRepo := message.NewRepository(c.DB.Pool)

	// ==================== Services ====================
	c.UserService = user.NewService(userRepo, c.JWTManager, c.redisClient())
	c.TagService = tag.NewService(tagRepo)
	c.NotificationService = notification.NewService(notificationRepo, userRepo, tagRepo, cfg.Content.ExcerptLen)
	c.EntryService = entry.NewService(entryRepo, userRepo, c.NotificationService, c.Formatter, c.UserService, cfg.Content.MaxLength)
	c.FeedService = feed.NewService(entryRepo, tagRepo, c.TagService, feed.Config{
		PageSize:  cfg.Feed.PageSize,
		HotWindow: cfg.Feed.HotWindow,
		MaxDepth:  cfg.Feed.MaxDepth,
	})
	c.MessageService = message.NewService(messageRepo, userRepo, c.Formatter)

	// ==================== Handlers ====================
	c.UserHandler = user.NewHandler(c.UserService)
	c.TagHandler = tag.NewHandler(c.TagService)
	c.EntryHandler = entry.NewHandler(c.EntryService, cfg.Feed.MaxDepth)
	c.NotificationHandler = notification.NewHandler(c.NotificationService)
	c.FeedHandler = feed.NewHandler(c.FeedService)
	c.MessageHandler = message.NewHandler(c.MessageService)

	return c, nil
}

func (c *Container) redisClient() *redis.Client {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Client
}

func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
