package processor

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockProcessor implements the processor boundary in memory for demo and
// test environments without a live card-processor account. Intents succeed
// on confirmation; webhook payloads are signed with HMAC-SHA256.
type MockProcessor struct {
	mu            sync.Mutex
	webhookSecret []byte
	intents       map[string]*Intent
}

func NewMockProcessor(webhookSecret string) *MockProcessor {
	return &MockProcessor{
		webhookSecret: []byte(webhookSecret),
		intents:       make(map[string]*Intent),
	}
}

func (m *MockProcessor) CreateIntent(ctx context.Context, amountCents int64, currency, customerRef string, metadata map[string]string) (*Intent, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	intent := &Intent{
		ID:           "pi_mock_" + uuid.New().String(),
		ClientSecret: "secret_" + uuid.New().String(),
		Status:       IntentStatusPending,
	}
	m.mu.Lock()
	m.intents[intent.ID] = intent
	m.mu.Unlock()
	return intent, nil
}

func (m *MockProcessor) ConfirmIntent(ctx context.Context, intentID, methodRef string) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("unknown intent %s", intentID)
	}
	intent.Status = IntentStatusSucceeded
	return intent, nil
}

func (m *MockProcessor) Refund(ctx context.Context, intentID string, amountCents int64, reason string) (*RefundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.intents[intentID]; !ok {
		return nil, fmt.Errorf("unknown intent %s", intentID)
	}
	return &RefundResult{
		ID:          "re_mock_" + uuid.New().String(),
		AmountCents: amountCents,
	}, nil
}

type webhookPayload struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	IntentID    string `json:"intent_id"`
	AmountCents int64  `json:"amount_cents"`
}

func (m *MockProcessor) VerifyWebhookSignature(payload []byte, signature string) (*Event, error) {
	mac := hmac.New(sha256.New, m.webhookSecret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("webhook signature mismatch")
	}

	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	return &Event{ID: p.ID, Type: p.Type, IntentID: p.IntentID, AmountCents: p.AmountCents}, nil
}

// SignPayload produces the signature a caller would attach to a webhook
// delivery; test helper for the mock setup.
func (m *MockProcessor) SignPayload(payload []byte) string {
	mac := hmac.New(sha256.New, m.webhookSecret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
