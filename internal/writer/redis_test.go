// internal/writer/redis_test.go
package writer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/monitor"
	"github.com/tamzrod/amc-monitor/internal/poller"
	"github.com/tamzrod/amc-monitor/internal/status"
)

// setupMiniredis starts a miniredis instance and returns a publisher and a raw client.
func setupMiniredis(t *testing.T) (*RedisPublisher, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	pub, err := NewRedisPublisher(RedisConfig{URL: "redis://" + mr.Addr(), ChannelPrefix: "amcmon"})
	if err != nil {
		t.Fatalf("NewRedisPublisher() err=%v", err)
	}
	t.Cleanup(func() { pub.Close() })

	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { raw.Close() })

	return pub, raw
}

func sampleUpdate() Update {
	return Update{
		Result: poller.PollResult{
			BoardID:   "amc02",
			At:        time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC),
			Connected: true,
			LinkMask:  0x3,
			Report: monitor.Report{
				Seq: 9,
				Outcomes: []monitor.Outcome{
					{Table: "DAQ_MAIN", Points: 2},
					{Table: "DAQ_TTC_MAIN", Err: errcode.New(errcode.RPCMethod, "getmonTTCmain", "busy")},
				},
				Snapshot: monitor.Snapshot{Board: "amc02", Clock: 4},
			},
		},
		Status: status.Snapshot{Health: status.HealthStale, FailedTables: 1, LinkMask: 0x3},
	}
}

func TestNewRedisPublisher_Validation(t *testing.T) {
	if _, err := NewRedisPublisher(RedisConfig{ChannelPrefix: "x"}); err == nil {
		t.Fatalf("expected error for missing url")
	}
	if _, err := NewRedisPublisher(RedisConfig{URL: "redis://localhost:6379"}); err == nil {
		t.Fatalf("expected error for missing prefix")
	}
	if _, err := NewRedisPublisher(RedisConfig{URL: "http://nope", ChannelPrefix: "x"}); err == nil {
		t.Fatalf("expected error for bad url scheme")
	}
}

func TestRedisPublisher_StoresAndPublishes(t *testing.T) {
	pub, raw := setupMiniredis(t)
	ctx := context.Background()

	if err := pub.Ping(ctx); err != nil {
		t.Fatalf("Ping() err=%v", err)
	}

	// Subscribe BEFORE publishing (Pub/Sub has no replay)
	sub := raw.Subscribe(ctx, "amcmon:amc02")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	if err := pub.Write(ctx, sampleUpdate()); err != nil {
		t.Fatalf("Write() err=%v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("failed to receive message: %v", err)
	}

	var got Message
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	if got.Board != "amc02" || got.Seq != 9 || got.Health != "stale" {
		t.Errorf("unexpected header: %+v", got)
	}
	if got.Timestamp != "2024-03-07T12:00:00Z" {
		t.Errorf("Timestamp = %q", got.Timestamp)
	}
	if len(got.Failed) != 1 || got.Failed[0].Table != "DAQ_TTC_MAIN" || got.Failed[0].Code != string(errcode.RPCMethod) {
		t.Errorf("unexpected failures: %+v", got.Failed)
	}
	if !got.Connected || got.LinkMask != 0x3 || got.Status.FailedTables != 1 {
		t.Errorf("unexpected state: %+v", got)
	}

	stored, err := raw.Get(ctx, "amcmon:amc02:snapshot").Result()
	if err != nil {
		t.Fatalf("GET snapshot key: %v", err)
	}
	if stored != msg.Payload {
		t.Errorf("stored snapshot differs from published payload")
	}
}

func TestRedisPublisher_RejectsUnsafeBoardID(t *testing.T) {
	pub, raw := setupMiniredis(t)
	ctx := context.Background()

	u := sampleUpdate()
	u.Result.BoardID = "amc02:*"
	if err := pub.Write(ctx, u); err == nil {
		t.Fatalf("expected error for unsafe board id")
	}

	keys, err := raw.Keys(ctx, "*").Result()
	if err != nil {
		t.Fatalf("KEYS: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("nothing must be stored, got %v", keys)
	}
}

func TestRedisPublisher_KeyNames(t *testing.T) {
	pub, err := NewRedisPublisher(RedisConfig{URL: "redis://localhost:6379/0", ChannelPrefix: "gem"})
	if err != nil {
		t.Fatalf("NewRedisPublisher() err=%v", err)
	}
	defer pub.Close()

	if got := pub.SnapshotKey("amc02"); got != "gem:amc02:snapshot" {
		t.Fatalf("SnapshotKey = %q", got)
	}
	if got := pub.Channel("amc02"); got != "gem:amc02" {
		t.Fatalf("Channel = %q", got)
	}
}
