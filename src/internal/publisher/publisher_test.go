package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"forumhub-activity-svc/src/internal/config"
	"forumhub-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	Key   string
	Value string
}

type fakeClient struct {
	mu         sync.Mutex
	connectErr error
	sendErr    error
	connects   int
	closes     int
	sent       []sentMessage
}

func (f *fakeClient) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeClient) Send(ctx context.Context, key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{Key: string(key), Value: string(value)})
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeClient) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeClient) setConnectErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErr = err
}

func testConfig() *config.KafkaConfig {
	return &config.KafkaConfig{
		Brokers:          "localhost:9092",
		Topic:            "event",
		ClientID:         "test-client",
		Enabled:          true,
		QueueSize:        32,
		HeartbeatSeconds: 3,
	}
}

func countingFactory(client *fakeClient) (ClientFactory, *int, *sync.Mutex) {
	var constructions int
	var mu sync.Mutex
	factory := func(cfg *config.KafkaConfig) (Client, error) {
		mu.Lock()
		defer mu.Unlock()
		constructions++
		return client, nil
	}
	return factory, &constructions, &mu
}

func TestPublishDeliversQueuedEvents(t *testing.T) {
	client := &fakeClient{}
	factory, _, _ := countingFactory(client)

	p := New(testConfig(), factory)
	defer p.Close()

	p.Publish(models.EventPayload{UserID: "u1", EventType: "login", SessionID: "s1"})
	p.Publish(models.EventPayload{UserID: "u1", EventType: "logout", SessionID: "s1"})

	require.Eventually(t, func() bool { return client.sentCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, "u1:login:s1", client.sent[0].Key)
	assert.Equal(t, "u1:logout:s1", client.sent[1].Key)
	assert.Contains(t, client.sent[0].Value, `"event_type":"login"`)
	assert.Equal(t, StateConnected, p.State())
}

func TestConcurrentFirstPublishConstructsClientOnce(t *testing.T) {
	client := &fakeClient{}
	factory, constructions, mu := countingFactory(client)

	p := New(testConfig(), factory)
	defer p.Close()

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Publish(models.EventPayload{UserID: "u42", EventType: "upvote"})
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return client.sentCount() == callers },
		2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, *constructions)
}

func TestDisabledModeIsSilentNoop(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	cfg := testConfig()
	cfg.Enabled = false

	factory := func(cfg *config.KafkaConfig) (Client, error) {
		t.Fatal("factory must not be invoked in disabled mode")
		return nil, nil
	}

	p := New(cfg, factory)
	assert.False(t, p.Enabled())

	for i := 0; i < 5; i++ {
		p.Publish(models.EventPayload{UserID: "u1", EventType: "login"})
	}

	assert.Equal(t, StateUninitialized, p.State())
	assert.Empty(t, hook.AllEntries())

	p.Close()
	assert.Equal(t, StateDisconnected, p.State())
}

func TestNoBrokersDisablesPublishing(t *testing.T) {
	cfg := testConfig()
	cfg.Brokers = " , "

	p := New(cfg, func(cfg *config.KafkaConfig) (Client, error) {
		t.Fatal("factory must not be invoked without brokers")
		return nil, nil
	})
	defer p.Close()

	assert.False(t, p.Enabled())
	p.Publish(models.EventPayload{UserID: "u1", EventType: "login"})
}

func TestFailedConnectRetriesOnNextPublish(t *testing.T) {
	client := &fakeClient{connectErr: errors.New("broker unreachable")}
	factory, constructions, mu := countingFactory(client)

	p := New(testConfig(), factory)
	defer p.Close()

	p.Publish(models.EventPayload{UserID: "u1", EventType: "login"})

	require.Eventually(t, func() bool {
		client.mu.Lock()
		connects := client.connects
		client.mu.Unlock()
		return connects >= 1 && p.State() == StateUninitialized
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, client.sentCount())

	client.setConnectErr(nil)
	p.Publish(models.EventPayload{UserID: "u1", EventType: "login"})

	require.Eventually(t, func() bool { return client.sentCount() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateConnected, p.State())

	// The client itself is memoized across the failed attempt.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, *constructions)
}

func TestSendFailureLoggedOncePerOutage(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	client := &fakeClient{sendErr: errors.New("partition offline")}
	factory, _, _ := countingFactory(client)

	p := New(testConfig(), factory)
	defer p.Close()

	for i := 0; i < 3; i++ {
		p.Publish(models.EventPayload{UserID: "u1", EventType: "upvote"})
	}

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.connects >= 1 && len(client.sent) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Give the loop time to run all three attempts before counting.
	require.Eventually(t, func() bool {
		count := 0
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.ErrorLevel && entry.Message == "Failed to publish event" {
				count++
			}
		}
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	count := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Message == "Failed to publish event" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCloseDisconnectsExactlyOnce(t *testing.T) {
	client := &fakeClient{}
	factory, _, _ := countingFactory(client)

	p := New(testConfig(), factory)
	p.Publish(models.EventPayload{UserID: "u1", EventType: "login"})
	require.Eventually(t, func() bool { return client.sentCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Close()
		}()
	}
	wg.Wait()
	p.Close()

	client.mu.Lock()
	closes := client.closes
	client.mu.Unlock()

	assert.Equal(t, 1, closes)
	assert.Equal(t, StateDisconnected, p.State())

	// Publishing after close is a no-op, not a panic.
	p.Publish(models.EventPayload{UserID: "u1", EventType: "logout"})
	assert.Equal(t, 1, client.sentCount())
}

func TestMessageKey(t *testing.T) {
	tests := []struct {
		name     string
		payload  models.EventPayload
		expected string
	}{
		{"all parts", models.EventPayload{UserID: "u1", EventType: "login", SessionID: "s1"}, "u1:login:s1"},
		{"no session", models.EventPayload{UserID: "u42", EventType: "upvote"}, "u42:upvote"},
		{"only event", models.EventPayload{EventType: "login"}, "login"},
		{"all empty", models.EventPayload{}, "activity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MessageKey(tt.payload))
		})
	}
}
