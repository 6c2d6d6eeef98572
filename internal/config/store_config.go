package config

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

type StoreConfig interface {
	GetSessionBackend() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetDatabaseDriver() string
	GetDatabaseDSN() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetSessionBackend() string {
	return GetEnv("SESSION_BACKEND", SessionBackendMemory)
}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Store) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Store) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "wildlife:")
}

func (Store) GetDatabaseDriver() string {
	return GetEnv("DATABASE_DRIVER", DatabaseDriverSQLite)
}

func (Store) GetDatabaseDSN() string {
	return GetEnv("DATABASE_DSN", "./data/registry.db")
}
