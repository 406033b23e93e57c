package notification

import "sync"

// MockNotifier records sent notices for tests.
type MockNotifier struct {
	mu   sync.Mutex
	Sent []SentNotice
}

type SentNotice struct {
	Type NoticeType
	Data NotificationData
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Send(noticeType NoticeType, notification NotificationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentNotice{Type: noticeType, Data: notification})
	return nil
}
