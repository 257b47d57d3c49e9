package otc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/token"
)

const keyPrefix = "otc:"

var ErrCodeNotFound = errors.New("code not found")

// Redis keeps one-time login codes. A code maps to a token pair and can be
// redeemed once before it expires.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Redis{
		rdb: rdb,
		ttl: cfg.TTL,
	}
}

type codeEntry struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (r *Redis) CreateCode(ctx context.Context, ts token.Pair) (string, error) {
	ce := codeEntry{
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
	}

	var sb strings.Builder
	err := json.NewEncoder(&sb).Encode(ce)
	if err != nil {
		return "", fmt.Errorf("serialize tokens: %w", err)
	}

	for range 3 {
		code := generateCode()
		ok, err := r.rdb.SetNX(ctx, keyPrefix+code, sb.String(), r.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("store code in redis: %w", err)
		}
		if ok {
			return code, nil
		}
	}

	return "", errors.New("failed to generate unique code")
}

func (r *Redis) RedeemCode(ctx context.Context, code string) (token.Pair, error) {
	val, err := r.rdb.GetDel(ctx, keyPrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return token.Pair{}, ErrCodeNotFound
		}

		return token.Pair{}, fmt.Errorf("retrieve code from redis: %w", err)
	}

	var ce codeEntry
	err = json.NewDecoder(strings.NewReader(val)).Decode(&ce)
	if err != nil {
		return token.Pair{}, fmt.Errorf("deserialize code entry: %w", err)
	}

	return token.Pair{
		AccessToken:  ce.AccessToken,
		RefreshToken: ce.RefreshToken,
	}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

// generateCode returns a random code that is safe to put into a URL.
func generateCode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))
}
