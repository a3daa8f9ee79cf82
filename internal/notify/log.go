package notify

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// logNotifier writes the message to the service log instead of delivering
// it. Only suitable for development.
type logNotifier struct{}

func init() {
	Register("log", func(interface{}) (Notifier, error) {
		return logNotifier{}, nil
	})
}

func (logNotifier) Name() string {
	return "log"
}

func (logNotifier) Send(ctx context.Context, to, subject, body string) error {
	logutil.GetLogger(ctx).Info("notification",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
