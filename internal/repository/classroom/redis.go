package classroom

import (
	"context"

	"github.com/go-redis/redis"
)

// RedisStore shares the classroom context between several API instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return r.prefix + ":" + name
}

func (r *RedisStore) SaveOCR(_ context.Context, text string) error {
	return r.client.Set(r.key("ocr"), text, 0).Err()
}

func (r *RedisStore) LatestOCR(_ context.Context) (string, error) {
	return r.get("ocr")
}

func (r *RedisStore) AppendSpeech(_ context.Context, line string) error {
	return r.client.Append(r.key("stt"), line).Err()
}

func (r *RedisStore) SpeechLog(_ context.Context) (string, error) {
	return r.get("stt")
}

func (r *RedisStore) get(name string) (string, error) {
	val, err := r.client.Get(r.key(name)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
