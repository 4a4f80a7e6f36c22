package events

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Redis publishes and subscribes over Redis pub/sub.
type Redis struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

func NewRedis(ctx context.Context, addr, password, prefix string, log zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Info().Str("addr", addr).Msg("redis change feed connected")
	return &Redis{client: client, prefix: prefix, log: log}, nil
}

func (r *Redis) channel(spaceID string) string {
	return r.prefix + Channel(spaceID)
}

func (r *Redis) Publish(ctx context.Context, e Event) error {
	body, err := e.Encode()
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel(e.SpaceID), body).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, spaceID string) (<-chan Event, func(), error) {
	sub := r.client.Subscribe(ctx, r.channel(spaceID))
	// Wait for the subscription confirmation so callers do not miss events.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			e, err := Decode([]byte(msg.Payload))
			if err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed event")
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() { sub.Close() }, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
