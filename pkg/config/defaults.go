package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "carrental"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort        = "8080"
	DefaultEnvironment = "development"
	DefaultLogLevel    = "info"

	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMaxRequestSize  = 1 << 20 // 1 MiB

	DefaultBaseDayRate = "100"
	DefaultBaseKmRate  = "5"

	DefaultKafkaTopic = "rental-events"

	DefaultPaginationLimit = 100
)
