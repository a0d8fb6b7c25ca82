package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/fundraising-backend/internal/logger"
)

// SafeGoWithContext запускает горутину с контекстом и логирует panic вместо падения процесса.
func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer recoverAndLog(name)
		fn(ctx)
	}()
}

func recoverAndLog(name string) {
	if r := recover(); r != nil {
		logger.L().WithFields(logrus.Fields{
			"goroutine": name,
			"panic":     r,
			"stack":     string(debug.Stack()),
		}).Error("Panic in goroutine")
	}
}
