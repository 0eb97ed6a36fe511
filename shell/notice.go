package shell

import "github.com/sirupsen/logrus"

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short user-facing acknowledgement or failure message.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message,omitempty"`
}

type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type logNotifier struct{}

func (logNotifier) Notify(n Notice) {
	entry := logrus.WithFields(logrus.Fields{"title": n.Title, "level": n.Level})
	switch n.Level {
	case NoticeError:
		entry.Error(n.Message)
	case NoticeWarning:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}
}
