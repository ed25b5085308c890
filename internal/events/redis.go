package events

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannelPrefix namespaces run channels on the Redis server.
const DefaultChannelPrefix = "assignopt:run:"

// DefaultQueueSize bounds events waiting to be sent to Redis.
const DefaultQueueSize = 256

// Redis is a Broker over Redis pub/sub, so progress can be followed from
// another process. Publish only enqueues; a single sender goroutine owns
// the network round trips and events are dropped while the queue is full.
type Redis struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
	log     *zap.Logger

	queue   chan Event
	dropped atomic.Uint64
	ctx     context.Context
	cancel  context.CancelFunc
	sender  sync.WaitGroup
	once    sync.Once

	mu   sync.Mutex
	subs map[chan Event]*redis.PubSub
}

// NewRedis connects to the server at url (redis://host:port/db).
func NewRedis(url string, log *zap.Logger) (*Redis, error) {
	return newRedis(url, log, DefaultQueueSize)
}

func newRedis(url string, log *zap.Logger, queue int) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if queue < 1 {
		queue = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Redis{
		rdb:     redis.NewClient(opt),
		prefix:  DefaultChannelPrefix,
		timeout: 2 * time.Second,
		log:     log,
		queue:   make(chan Event, queue),
		ctx:     ctx,
		cancel:  cancel,
		subs:    map[chan Event]*redis.PubSub{},
	}
	b.sender.Add(1)
	go b.send()
	return b, nil
}

// Dropped counts events discarded because the queue was full.
func (b *Redis) Dropped() uint64 { return b.dropped.Load() }

// Ping checks the connection.
func (b *Redis) Ping(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

// Close stops the sender, discarding queued events, and releases the
// client and every open subscription.
func (b *Redis) Close() error {
	b.once.Do(b.cancel)
	b.mu.Lock()
	for ch, ps := range b.subs {
		_ = ps.Close()
		delete(b.subs, ch)
	}
	b.mu.Unlock()
	err := b.rdb.Close()
	b.sender.Wait()
	return err
}

func (b *Redis) Subscribe(runID string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	var ps *redis.PubSub
	if runID == All {
		ps = b.rdb.PSubscribe(ctx, b.prefix+"*")
	} else {
		ps = b.rdb.Subscribe(ctx, b.channel(runID))
	}
	// wait for the subscription to be confirmed
	if _, err := ps.Receive(ctx); err != nil {
		b.log.Warn("redis subscribe failed", zap.String("run_id", runID), zap.Error(err))
	}
	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			evt, err := decode([]byte(msg.Payload))
			if err != nil {
				b.log.Debug("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the subscription; ch is closed once its reader exits.
func (b *Redis) Unsubscribe(_ string, ch chan Event) {
	b.mu.Lock()
	ps := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ps != nil {
		_ = ps.Close()
	}
}

// Publish enqueues evt without waiting on the network.
func (b *Redis) Publish(evt Event) {
	if b.ctx.Err() != nil {
		b.dropped.Add(1)
		return
	}
	select {
	case b.queue <- evt:
	default:
		if b.dropped.Add(1) == 1 {
			b.log.Warn("redis event queue full; dropping events", zap.String("run_id", evt.RunID))
		}
	}
}

func (b *Redis) send() {
	defer b.sender.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case evt := <-b.queue:
			b.publish(evt)
		}
	}
}

func (b *Redis) publish(evt Event) {
	data, err := encode(evt)
	if err != nil {
		b.log.Warn("encode event", zap.String("type", evt.Type), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()
	if err := b.rdb.Publish(ctx, b.channel(evt.RunID), data).Err(); err != nil && b.ctx.Err() == nil {
		b.log.Warn("redis publish failed", zap.String("run_id", evt.RunID), zap.String("type", evt.Type), zap.Error(err))
	}
}

func (b *Redis) channel(runID string) string { return b.prefix + runID }

func encode(evt Event) ([]byte, error) { return json.Marshal(evt) }

func decode(data []byte) (Event, error) {
	var evt Event
	err := json.Unmarshal(data, &evt)
	return evt, err
}
