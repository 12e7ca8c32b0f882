package config

import (
	"time"
)

const (
	StorageMongoDB = "mongodb"
	StorageMemory  = "memory"
)

type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
	MinPoolSize    int           `yaml:"min_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
	Transactions   bool          `yaml:"transactions"`
	RunMigrations  bool          `yaml:"run_migrations"`
	// SeedFile preloads users, hospitals and ambulance drivers into the
	// memory store.
	SeedFile string `yaml:"seed_file"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver:         getEnv("STORAGE_DRIVER", StorageMongoDB),
		URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		Database:       getEnv("MONGODB_DATABASE", "ambulance_dispatch"),
		MaxPoolSize:    getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MinPoolSize:    getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:  getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
		Transactions:   getEnvAsBool("MONGODB_TRANSACTIONS", true),
		RunMigrations:  getEnvAsBool("MONGODB_RUN_MIGRATIONS", true),
		SeedFile:       getEnv("SEED_FILE", ""),
	}
}
