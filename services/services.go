package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"quizai/apperr"
	"quizai/logger"
)

const maxCodeAttempts = 5

// uniqueCode draws codes from gen until exists reports a fresh one.
func uniqueCode(ctx context.Context, gen func() (string, error), exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := gen()
		if err != nil {
			return "", apperr.Internal("generate code", err)
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperr.Internal("generate code", fmt.Errorf("no free code after %d attempts", maxCodeAttempts))
}

func tooManyRequests(what string, retryAfter time.Duration) error {
	return apperr.TooManyRequests(fmt.Sprintf("Too many %s. Try again in %s.", what, roundUp(retryAfter)))
}

func roundUp(d time.Duration) string {
	if d <= 0 {
		return "a moment"
	}
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(math.Ceil(d.Seconds())))
	}
	minutes := int(math.Ceil(d.Minutes()))
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func orNop(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.Nop()
	}
	return log
}
