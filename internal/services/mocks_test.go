package services

import (
	"context"
	"sync"
	"time"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/pkg/identity"
	"ambulance-dispatch/pkg/push"
	"ambulance-dispatch/pkg/sms"
)

type mockPushProvider struct {
	mu       sync.Mutex
	SendFunc func(ctx context.Context, req *push.NotificationRequest) (*push.NotificationResponse, error)
	sent     []*push.NotificationRequest
}

func (m *mockPushProvider) SendNotification(ctx context.Context, req *push.NotificationRequest) (*push.NotificationResponse, error) {
	m.mu.Lock()
	m.sent = append(m.sent, req)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, req)
	}
	return &push.NotificationResponse{MessageID: "msg", Success: true, Target: req.Topic}, nil
}

func (m *mockPushProvider) SubscribeToTopic(context.Context, []string, string) error   { return nil }
func (m *mockPushProvider) UnsubscribeFromTopic(context.Context, []string, string) error { return nil }

func (m *mockPushProvider) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, r := range m.sent {
		out[i] = r.Topic
	}
	return out
}

type mockSMSProvider struct {
	mu       sync.Mutex
	SendFunc func(ctx context.Context, req *sms.SMSRequest) (*sms.SMSResponse, error)
	sent     []*sms.SMSRequest
}

func (m *mockSMSProvider) SendSMS(ctx context.Context, req *sms.SMSRequest) (*sms.SMSResponse, error) {
	m.mu.Lock()
	m.sent = append(m.sent, req)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, req)
	}
	return &sms.SMSResponse{MessageID: "sm-1", Status: "queued"}, nil
}

func (m *mockSMSProvider) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type roomMessage struct {
	Room string
	Type string
	Data map[string]interface{}
}

type mockRealtime struct {
	mu       sync.Mutex
	messages []roomMessage
}

func (m *mockRealtime) SendToRoom(roomID, messageType string, data map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, roomMessage{Room: roomID, Type: messageType, Data: data})
}

// SendToUser records under the user's room name, as the hub delivers it.
func (m *mockRealtime) SendToUser(userID, messageType string, data map[string]interface{}) {
	m.SendToRoom("user_"+userID, messageType, data)
}

func (m *mockRealtime) rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.Room
	}
	return out
}

type mockVerifier struct {
	VerifyFunc func(ctx context.Context, credential string) (*identity.Claims, error)
	calls      int
}

func (m *mockVerifier) Verify(ctx context.Context, credential string) (*identity.Claims, error) {
	m.calls++
	return m.VerifyFunc(ctx, credential)
}

type mockUserRepository struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

type mockIdempotencyStore struct {
	mu          sync.Mutex
	ReserveFunc func(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	CompleteErr error
	reserved    []string
	completed   map[string]string
	released    []string
}

func (m *mockIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	m.reserved = append(m.reserved, key)
	m.mu.Unlock()
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, key, ttl)
	}
	return "", true, nil
}

func (m *mockIdempotencyStore) Complete(_ context.Context, key, recordID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completed == nil {
		m.completed = make(map[string]string)
	}
	m.completed[key] = recordID
	return m.CompleteErr
}

func (m *mockIdempotencyStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, key)
	return nil
}
