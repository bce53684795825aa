package logmail

import (
	"context"
	"log/slog"
)

// Notifier writes verification links to the log instead of sending them.
// Intended for local development only.
type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

func (n *Notifier) SendVerification(ctx context.Context, to, link string) error {
	n.logger.InfoContext(ctx, "verification link", "to", to, "link", link)
	return nil
}
