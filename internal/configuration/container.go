package configuration

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/auth"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/db"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/handler"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/hub"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/repo"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	ChatHandler handler.ChatHandler
	Hub         *hub.Hub
	Config      Config
	Logger      *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("CONFIG_PATH")
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, err
	}

	userRepo := repo.NewUserRepository(con, db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection))
	groupRepo := repo.NewGroupRepository(con, db.NewRepository[model.Group](con, config.ChatDatabase.GroupsCollection), logger)
	messageRepo := repo.NewMessageRepository(con, db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection), logger)

	authenticator := auth.NewAuthenticator(config.Auth.JwtSecret, userRepo, logger)

	chatHub := hub.NewHub(authenticator, groupRepo, messageRepo, config.Server.AllowedOrigins, logger)

	chatHandler := handler.NewChatHandler(messageRepo, groupRepo, logger)

	return &Container{
		ChatHandler: chatHandler,
		Hub:         chatHub,
		Config:      *config,
		Logger:      logger,
		mongoClient: con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
