// Package notification delivers account lifecycle emails. Delivery is
// best-effort: a failed notice is logged by callers and never fails the
// request that triggered it.
package notification

// NoticeType identifies a notification template.
type NoticeType string

const (
	WelcomeNotice       NoticeType = "welcome"
	AccountLinkedNotice NoticeType = "account_linked"
)

// NotificationData carries the recipient and template fields for one notice.
type NotificationData struct {
	To   string
	Data map[string]string
}

// Notifier sends a notification of the given type.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData) error
}
