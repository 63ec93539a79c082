package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentStore keeps each collection in a redis hash, one JSON
// document per field. Path "meetingRooms/<id>" maps to HGET meetingRooms <id>.
type RedisDocumentStore struct {
	client *redis.Client
}

func NewRedisDocumentStore(client *redis.Client) *RedisDocumentStore {
	return &RedisDocumentStore{client: client}
}

func splitPath(path string) (collection, key string, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid document path: %q", path)
	}
	return parts[0], parts[1], nil
}

func (r *RedisDocumentStore) Get(ctx context.Context, path string, session string) (json.RawMessage, error) {
	collection, key, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	val, err := r.client.HGet(ctx, collection, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %q: %w", path, err)
	}

	return json.RawMessage(val), nil
}

func (r *RedisDocumentStore) GetAll(ctx context.Context, path string, session string) (map[string]json.RawMessage, error) {
	collection := strings.Trim(path, "/")
	if collection == "" || strings.Contains(collection, "/") {
		return nil, fmt.Errorf("invalid collection path: %q", path)
	}

	vals, err := r.client.HGetAll(ctx, collection).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %q: %w", path, err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	docs := make(map[string]json.RawMessage, len(vals))
	for key, val := range vals {
		docs[key] = json.RawMessage(val)
	}
	return docs, nil
}

func (r *RedisDocumentStore) Set(ctx context.Context, path string, value interface{}, session string) error {
	collection, key, err := splitPath(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", path, err)
	}

	if err := r.client.HSet(ctx, collection, key, data).Err(); err != nil {
		return fmt.Errorf("failed to set document %q: %w", path, err)
	}
	return nil
}

func (r *RedisDocumentStore) Update(ctx context.Context, path string, partial map[string]interface{}, session string) error {
	collection, key, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(partial) == 0 {
		return nil
	}

	val, err := r.client.HGet(ctx, collection, key).Result()
	if err == redis.Nil {
		// Same as the upstream contract: updating an absent path creates it.
		return r.Set(ctx, path, partial, session)
	}
	if err != nil {
		return fmt.Errorf("failed to get document %q: %w", path, err)
	}

	merged := map[string]interface{}{}
	if err := json.Unmarshal([]byte(val), &merged); err != nil {
		return fmt.Errorf("failed to unmarshal document %q: %w", path, err)
	}
	for field, value := range partial {
		merged[field] = value
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", path, err)
	}
	if err := r.client.HSet(ctx, collection, key, data).Err(); err != nil {
		return fmt.Errorf("failed to update document %q: %w", path, err)
	}
	return nil
}

func (r *RedisDocumentStore) Remove(ctx context.Context, path string) error {
	collection, key, err := splitPath(path)
	if err != nil {
		return err
	}

	if err := r.client.HDel(ctx, collection, key).Err(); err != nil {
		return fmt.Errorf("failed to remove document %q: %w", path, err)
	}
	return nil
}
