//go:build !windows

package hotkey

import (
	"context"
	"log/slog"
)

func Listen(ctx context.Context, bindings []Binding, fire func(action string), log *slog.Logger) error {
	if len(bindings) == 0 {
		<-ctx.Done()
		return nil
	}
	return ErrUnsupported
}
