// internal/writer/redis.go
package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/monitor"
	"github.com/tamzrod/amc-monitor/internal/status"
)

// MessageVersion is the payload version published to Redis.
const MessageVersion = "1"

// boardIDPattern keeps board ids safe to embed in key and channel names.
var boardIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// FailedTable is one table that did not refresh in the cycle.
type FailedTable struct {
	Table string `json:"table"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Message is the payload stored and published per board per poll.
type Message struct {
	Version   string           `json:"version"`
	Timestamp string           `json:"timestamp"`
	Board     string           `json:"board"`
	Seq       uint64           `json:"seq"`
	Health    string           `json:"health"`
	Status    status.Snapshot  `json:"status"`
	Connected bool             `json:"connected"`
	LinkMask  uint32           `json:"link_mask"`
	Failed    []FailedTable    `json:"failed,omitempty"`
	Snapshot  monitor.Snapshot `json:"snapshot"`
}

// NewMessage builds the payload for one update.
func NewMessage(u Update) Message {
	res := u.Result
	msg := Message{
		Version:   MessageVersion,
		Timestamp: res.At.UTC().Format(time.RFC3339),
		Board:     res.BoardID,
		Seq:       res.Report.Seq,
		Health:    status.HealthName(u.Status.Health),
		Status:    u.Status,
		Connected: res.Connected,
		LinkMask:  res.LinkMask,
		Snapshot:  res.Report.Snapshot,
	}
	for _, f := range res.Report.Failed() {
		msg.Failed = append(msg.Failed, FailedTable{
			Table: f.Table,
			Code:  string(errcode.Of(f.Err)),
			Error: f.Err.Error(),
		})
	}
	return msg
}

// RedisConfig holds configuration for the Redis snapshot publisher.
type RedisConfig struct {
	// URL is the Redis connection URL (redis://host:port/db).
	URL string

	// ChannelPrefix prefixes every key and channel.
	ChannelPrefix string
}

// RedisPublisher stores the latest snapshot of each board under
// <prefix>:<board>:snapshot and publishes it on <prefix>:<board>.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher parses the URL and creates the client. It does not dial.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("writer redis: url required")
	}
	if cfg.ChannelPrefix == "" {
		return nil, errors.New("writer redis: channel prefix required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("writer redis: parse url: %w", err)
	}

	return &RedisPublisher{
		client: redis.NewClient(opts),
		prefix: cfg.ChannelPrefix,
	}, nil
}

// Ping verifies the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("writer redis: ping: %w", err)
	}
	return nil
}

// SnapshotKey is the key holding the latest message of a board.
func (p *RedisPublisher) SnapshotKey(board string) string {
	return p.prefix + ":" + board + ":snapshot"
}

// Channel is the pub/sub channel of a board.
func (p *RedisPublisher) Channel(board string) string {
	return p.prefix + ":" + board
}

// Write stores and publishes one update in a single transaction.
func (p *RedisPublisher) Write(ctx context.Context, u Update) error {
	board := u.Result.BoardID
	if !boardIDPattern.MatchString(board) {
		return fmt.Errorf("writer redis: invalid board id %q", board)
	}

	data, err := json.Marshal(NewMessage(u))
	if err != nil {
		return fmt.Errorf("writer redis: marshal: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.SnapshotKey(board), data, 0)
	pipe.Publish(ctx, p.Channel(board), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writer redis: board %s: %w", board, err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
