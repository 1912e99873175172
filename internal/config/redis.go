package config

// Redis backs the rate limiter and the report cache.  If the server cannot
// be reached at startup NewRedisClient returns nil and both middlewares
// degrade to pass-through.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// RedisConfig holds the connection parameters.
//
//	Addr     – host:port; REDIS_HOST and REDIS_PORT take precedence over REDIS_ADDR
//	Password – optional password
//	DB       – database number
//	TLS      – enable TLS
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

func setRedisDefaults(v *viper.Viper) {
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_host", "")
	v.SetDefault("redis_port", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_tls", false)
}

func loadRedis(v *viper.Viper) RedisConfig {
	addr := v.GetString("redis_addr")
	if host, port := v.GetString("redis_host"), v.GetString("redis_port"); host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:     addr,
		Password: v.GetString("redis_password"),
		DB:       v.GetInt("redis_db"),
		TLS:      v.GetBool("redis_tls"),
	}
}

// NewRedisClient connects and pings with a short timeout.  The returned
// client is nil if the server is unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
