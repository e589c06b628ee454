package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultPoolSize is sized for the pipelined write bursts of the tap.
	DefaultPoolSize = 100
	// DefaultMinIdleConns keeps warm connections for the sampler ticks.
	DefaultMinIdleConns = 10
)

var (
	// ErrNotConnected is returned by all operations before Connect succeeds.
	ErrNotConnected = errors.New("redis client is not connected")
)

// Client wraps the go-redis client with connection-state tracking. The bot,
// dashboard and monitor each hold one instance.
type Client struct {
	client      *redis.Client
	isConnected bool
	mu          sync.RWMutex
	cfg         *config.RedisConfig
}

var (
	instance *Client
	once     sync.Once
)

// GetInstance returns the process-wide client singleton.
func GetInstance() *Client {
	once.Do(func() {
		instance = &Client{}
	})
	return instance
}

// Connect establishes the connection and verifies it with a ping.
func (c *Client) Connect(cfg *config.RedisConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg = cfg

	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.ConnectTimeout,
		ReadTimeout:  cfg.CommandTimeout,
		WriteTimeout: cfg.CommandTimeout,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     DefaultPoolSize,
		MinIdleConns: DefaultMinIdleConns,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{}
	}

	c.client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	if _, err := c.client.Ping(ctx).Result(); err != nil {
		logger.Error("Failed to connect to Redis", zap.Error(err))
		return err
	}

	c.isConnected = true
	logger.Info("Redis connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("db", cfg.DB))

	return nil
}

// Disconnect closes the connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			return err
		}
		c.isConnected = false
		logger.Info("Redis disconnected")
	}
	return nil
}

// GetClientSafe returns the underlying client or ErrNotConnected.
func (c *Client) GetClientSafe() (*redis.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isConnected || c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client, nil
}

// IsConnected reports connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// ========== generic operations ==========

// Get returns a string value.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return "", err
	}
	return client.Get(ctx, key).Result()
}

// GetInt returns an integer value, 0 when the key is absent.
func (c *Client) GetInt(ctx context.Context, key string) (int64, error) {
	val, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// Set stores a string value with an optional expiration.
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	return client.Set(ctx, key, value, expiration).Err()
}

// SetNX stores a value only if the key does not exist.
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}
	return client.SetNX(ctx, key, value, expiration).Result()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return 0, err
	}
	return client.Del(ctx, keys...).Result()
}

// Exists reports whether a key exists.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}
	n, err := client.Exists(ctx, key).Result()
	return n > 0, err
}

// HGetAll returns all hash fields.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}
	return client.HGetAll(ctx, key).Result()
}

// HSet sets hash fields.
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	return client.HSet(ctx, key, values...).Err()
}

// SAdd adds members to a set.
func (c *Client) SAdd(ctx context.Context, key string, members ...interface{}) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	return client.SAdd(ctx, key, members...).Err()
}

// SMembers returns the members of a set.
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}
	return client.SMembers(ctx, key).Result()
}

// SIsMember reports set membership.
func (c *Client) SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}
	return client.SIsMember(ctx, key, member).Result()
}

// ScanKeys collects all keys matching pattern using SCAN (never KEYS).
func (c *Client) ScanKeys(ctx context.Context, pattern string, count int64) ([]string, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}

	var keys []string
	var cursor uint64

	for {
		var batch []string
		var err error
		batch, cursor, err = client.Scan(ctx, cursor, pattern, count).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// DeleteByPatterns scans and deletes every key matching any pattern,
// returning the number of keys removed.
func (c *Client) DeleteByPatterns(ctx context.Context, patterns []string) (int64, error) {
	var removed int64
	for _, pattern := range patterns {
		keys, err := c.ScanKeys(ctx, pattern, 1000)
		if err != nil {
			return removed, err
		}
		if len(keys) == 0 {
			continue
		}
		n, err := c.Del(ctx, keys...)
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Pipeline returns a new pipeline.
func (c *Client) Pipeline() (redis.Pipeliner, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}
	return client.Pipeline(), nil
}

// TxPipeline returns a transactional pipeline (MULTI/EXEC).
func (c *Client) TxPipeline() (redis.Pipeliner, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}
	return client.TxPipeline(), nil
}

// ========== health ==========

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

// DBSize returns the key count.
func (c *Client) DBSize(ctx context.Context) (int64, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return 0, err
	}
	return client.DBSize(ctx).Result()
}

// parseInt64 safely parses an int64, returning 0 on empty or bad input.
func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

// parseFloat64 safely parses a float64.
func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
