package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

var (
	_ ports.UserStore  = (*RedisStore)(nil)
	_ ports.TokenStore = (*RedisStore)(nil)
)

// KEYS[1] address index; ARGV: nonce, new id, created_at, user prefix, address
var upsertNonceLua = redis.NewScript(`
local id = redis.call("GET", KEYS[1])
if not id then
  id = ARGV[2]
  redis.call("SET", KEYS[1], id)
  redis.call("HSET", ARGV[4] .. id, "id", id, "wallet_address", ARGV[5], "is_active", "1", "created_at", ARGV[3])
end
redis.call("HSET", ARGV[4] .. id, "nonce", ARGV[1])
return redis.call("HGETALL", ARGV[4] .. id)
`)

// KEYS[1] user hash; ARGV[1] expected nonce
var clearNonceLua = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local nonce = redis.call("HGET", KEYS[1], "nonce")
if not nonce or nonce ~= ARGV[1] then
  return 0
end
redis.call("HDEL", KEYS[1], "nonce")
return 1
`)

// KEYS[1] refresh token hash
var consumeTokenLua = redis.NewScript(`
if redis.call("HGET", KEYS[1], "is_active") ~= "1" then
  return {}
end
redis.call("HSET", KEYS[1], "is_active", "0")
return redis.call("HGETALL", KEYS[1])
`)

// RedisStore is a Redis implementation of the user and token stores.
// It needs a single-node client: the upsert script writes a user key
// that is only known once the address index has been read.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "walletauth:",
	}
}

func (s *RedisStore) userPrefix() string { return s.prefix + "user:" }
func (s *RedisStore) userKey(id string) string { return s.userPrefix() + id }
func (s *RedisStore) addressKey(addr string) string { return s.prefix + "addr:" + addr }
func (s *RedisStore) tokenKey(hash string) string { return s.prefix + "rt:" + hash }

// UpsertNonce sets the pending nonce, creating the user if needed
func (s *RedisStore) UpsertNonce(ctx context.Context, address, nonce, newID string, createdAt time.Time) (*core.User, error) {
	fields, err := upsertNonceLua.Run(ctx, s.client,
		[]string{s.addressKey(address)},
		nonce, newID, formatTime(createdAt), s.userPrefix(), address,
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to upsert nonce: %w", err)
	}

	return decodeUser(pairs(fields))
}

// GetByAddress looks a user up by wallet address
func (s *RedisStore) GetByAddress(ctx context.Context, address string) (*core.User, error) {
	id, err := s.client.Get(ctx, s.addressKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve address: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID looks a user up by ID
func (s *RedisStore) GetByID(ctx context.Context, id string) (*core.User, error) {
	fields, err := s.client.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrNotFound
	}

	return decodeUser(fields)
}

// ClearNonce clears the nonce if it still matches expected
func (s *RedisStore) ClearNonce(ctx context.Context, userID, expected string) error {
	res, err := clearNonceLua.Run(ctx, s.client, []string{s.userKey(userID)}, expected).Int64()
	if err != nil {
		return fmt.Errorf("failed to clear nonce: %w", err)
	}

	switch res {
	case -1:
		return core.ErrNotFound
	case 0:
		return core.ErrNonceMismatch
	default:
		return nil
	}
}

// Deactivate marks the user inactive
func (s *RedisStore) Deactivate(ctx context.Context, userID string) error {
	key := s.userKey(userID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists == 0 {
		return core.ErrNotFound
	}

	if err := s.client.HSet(ctx, key, "is_active", "0").Err(); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// CreateRefreshToken stores a token record that expires with the token
func (s *RedisStore) CreateRefreshToken(ctx context.Context, token *core.RefreshToken) error {
	key := s.tokenKey(token.TokenHash)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", token.UserID,
			"expires_at", formatTime(token.ExpiresAt),
			"is_active", formatBool(token.IsActive),
			"created_at", formatTime(token.CreatedAt),
		)
		pipe.ExpireAt(ctx, key, token.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken flips an active token to inactive in a single script
func (s *RedisStore) ConsumeRefreshToken(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	fields, err := consumeTokenLua.Run(ctx, s.client, []string{s.tokenKey(tokenHash)}).StringSlice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrNotFound
	}

	token, err := decodeToken(tokenHash, pairs(fields))
	if err != nil {
		return nil, err
	}
	// the script returns the post-update hash
	token.IsActive = true
	return token, nil
}

func pairs(flat []string) map[string]string {
	m := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		m[flat[i]] = flat[i+1]
	}
	return m
}

func decodeUser(fields map[string]string) (*core.User, error) {
	createdAt, err := parseTime(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt user record: %w", err)
	}

	user := &core.User{
		ID:            fields["id"],
		WalletAddress: fields["wallet_address"],
		IsActive:      fields["is_active"] == "1",
		CreatedAt:     createdAt,
	}
	if nonce, ok := fields["nonce"]; ok && nonce != "" {
		user.Nonce = &nonce
	}
	return user, nil
}

func decodeToken(hash string, fields map[string]string) (*core.RefreshToken, error) {
	expiresAt, err := parseTime(fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt refresh token record: %w", err)
	}
	createdAt, err := parseTime(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt refresh token record: %w", err)
	}

	return &core.RefreshToken{
		TokenHash: hash,
		UserID:    fields["user_id"],
		ExpiresAt: expiresAt,
		IsActive:  fields["is_active"] == "1",
		CreatedAt: createdAt,
	}, nil
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseTime(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
