package app

import (
	"context"
	"errors"
	"fmt"

	"multibox/action"
	"multibox/hotkey"
)

// HotkeyLoop valida as hotkeys configuradas e retorna o loop que as escuta.
// Sem suporte a hotkeys globais, o loop só espera ctx acabar.
func (a *App) HotkeyLoop() (func(context.Context) error, error) {
	bindings, err := hotkey.Bindings(a.cfg.Hotkeys)
	if err != nil {
		return nil, err
	}
	for _, b := range bindings {
		if _, ok := a.registry.Lookup(b.Action); !ok {
			return nil, fmt.Errorf("hotkey %s: %w: %s", b.Combo, action.ErrUnknownAction, b.Action)
		}
	}

	return func(ctx context.Context) error {
		err := hotkey.Listen(ctx, bindings, func(id string) { a.Submit(id) }, a.log)
		if errors.Is(err, hotkey.ErrUnsupported) {
			a.log.Warn("global hotkeys unavailable", "err", err)
			<-ctx.Done()
			return nil
		}
		return err
	}, nil
}
