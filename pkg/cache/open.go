package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Backends lists every supported backend name.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendNone}

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string
	Redis   RedisOptions
	Mongo   MongoOptions

	// TTL, when positive, replaces the per-stage TTLs on every write.
	TTL time.Duration
}

// Open constructs the backend named by opts.Backend. An empty backend means
// "file".
func Open(ctx context.Context, opts Options) (Cache, error) {
	c, err := open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return WithTTL(c, opts.TTL), nil
}

func open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("cache: file backend needs a directory")
		}
		return NewFileCache(opts.Dir)
	case BackendRedis:
		return NewRedisCache(ctx, opts.Redis)
	case BackendMongo:
		return NewMongoCache(ctx, opts.Mongo)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}
