package configuration

import (
	"encoding/json"
	"os"

	"github.com/caarlos0/env/v11"
)

type MongoConfig struct {
	Uri                string `json:"uri" env:"MONGO_URI"`
	Database           string `json:"database" env:"MONGO_DATABASE"`
	UsersCollection    string `json:"usersCollection" env:"MONGO_USERS_COLLECTION"`
	MessagesCollection string `json:"messagesCollection" env:"MONGO_MESSAGES_COLLECTION"`
	GroupsCollection   string `json:"groupsCollection" env:"MONGO_GROUPS_COLLECTION"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port" env:"APP_PORT"`
	SocketPort     int      `json:"socket_port" env:"SOCKET_PORT"`
	SocketRoute    string   `json:"socket_route" env:"SOCKET_ROUTE"`
	AllowedOrigins []string `json:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type AuthConfig struct {
	JwtSecret string `json:"jwtSecret" env:"JWT_SECRET"`
}

type Config struct {
	ChatDatabase MongoConfig  `json:"mongo"`
	Server       ServerConfig `json:"server"`
	Auth         AuthConfig   `json:"auth"`
}

// LoadConfig reads the JSON config file, then overlays environment
// variables so deployments can override individual values.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		ChatDatabase: MongoConfig{
			Uri:                "mongodb://localhost:27017",
			Database:           "driftyy",
			UsersCollection:    "users",
			MessagesCollection: "messages",
			GroupsCollection:   "groups",
		},
		Server: ServerConfig{
			AppPort:     8080,
			SocketPort:  8081,
			SocketRoute: "ws",
		},
	}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(file, config); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, err
	}

	return config, nil
}
