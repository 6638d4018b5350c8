package util

const (
	DatabaseMySQL    = "mysql"
	DatabasePostgres = "postgres"
)

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)
