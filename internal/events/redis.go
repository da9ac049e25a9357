package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher mirrors engine events onto a Redis pub/sub channel so that
// bots and other processes can follow the game without polling the API.
// Publish only enqueues; Run drains the queue.
type RedisPublisher struct {
	Client  *redis.Client
	channel string
	timeout time.Duration
	queue   chan Event
	logger  *zap.Logger
}

func NewRedisPublisher(opt *redis.Options, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		Client:  redis.NewClient(opt),
		channel: channel,
		timeout: 2 * time.Second,
		queue:   make(chan Event, 256),
		logger:  logger,
	}
}

// Ping verifies connectivity at startup.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

// Publish drops the event when the queue is full; the mirror is best effort.
func (p *RedisPublisher) Publish(_ context.Context, ev Event) {
	select {
	case p.queue <- ev:
	default:
		p.logger.Warn("redis event queue full; dropping event", zap.String("type", string(ev.Type)))
	}
}

// Run sends queued events until ctx is done.
func (p *RedisPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.queue:
			p.send(ctx, ev)
		}
	}
}

func (p *RedisPublisher) send(ctx context.Context, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("encode event for redis", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.Client.Publish(ctx, p.channel, b).Err(); err != nil {
		p.logger.Warn("publish event to redis", zap.String("channel", p.channel), zap.Error(err))
	}
}

func (p *RedisPublisher) Close() error {
	return p.Client.Close()
}
