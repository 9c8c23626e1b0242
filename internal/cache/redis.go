package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/manda2/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "m2"
	pingTimeout   = 3 * time.Second
)

// 进程级缓存；未启用或连接失败时所有读写都是空操作
var (
	redisClient *redis.Client
	redisPrefix = defaultPrefix
)

// InitRedis 初始化 Redis 客户端，启动时 PING 一次，失败则保持禁用
func InitRedis(cfg *config.RedisConfig) error {
	redisClient = nil
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	redisPrefix = strings.TrimSpace(cfg.Prefix)
	if redisPrefix == "" {
		redisPrefix = defaultPrefix
	}

	host, port := strings.TrimSpace(cfg.Host), cfg.Port
	if host == "" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}
	redisClient = client
	return nil
}

// Enabled 判断缓存是否可用
func Enabled() bool {
	return redisClient != nil
}

// Client 获取 Redis 客户端，未启用时为 nil
func Client() *redis.Client {
	return redisClient
}

// Close 关闭 Redis 客户端
func Close() error {
	if redisClient == nil {
		return nil
	}
	client := redisClient
	redisClient = nil
	return client.Close()
}

// GetJSON 读取 JSON 缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if redisClient == nil {
		return false, nil
	}
	raw, err := redisClient.Get(ctx, buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if redisClient == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return redisClient.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Remember 命中直接返回，否则调用 load 并回写；缓存故障不影响 load 结果
func Remember[T any](ctx context.Context, key string, ttl time.Duration, refresh bool, load func() (*T, error)) (*T, error) {
	if !refresh {
		var cached T
		if hit, err := GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	value, err := load()
	if err != nil {
		return nil, err
	}
	_ = SetJSON(ctx, key, value, ttl)
	return value, nil
}

// Del 删除缓存
func Del(ctx context.Context, keys ...string) error {
	if redisClient == nil || len(keys) == 0 {
		return nil
	}
	built := make([]string, len(keys))
	for i, key := range keys {
		built[i] = buildKey(key)
	}
	return redisClient.Del(ctx, built...).Err()
}

func buildKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return redisPrefix
	}
	return redisPrefix + ":" + key
}
