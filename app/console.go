package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/ttacon/chalk"

	"multibox/action"
)

type binding struct {
	key   rune
	id    string
	label string
	kind  action.Kind
}

// Console é o controle pelo terminal: cada tecla enfileira uma ação no App
type Console struct {
	app      *App
	out      io.Writer
	bindings []binding
	byKey    map[rune]binding
	last     string
}

// NewConsole valida o mapa tecla -> ação. Deve ser criado antes de Run.
func NewConsole(a *App, keys map[string]string, out io.Writer) (*Console, error) {
	c := &Console{app: a, out: out, byKey: make(map[rune]binding)}
	for key, id := range keys {
		r := []rune(key)
		if len(r) != 1 {
			return nil, fmt.Errorf("console key %q must be a single character", key)
		}
		act, ok := a.registry.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("console key %q: %w: %s", key, action.ErrUnknownAction, id)
		}
		if r[0] == 'q' || r[0] == 'Q' {
			return nil, fmt.Errorf("console key %q is reserved", key)
		}
		b := binding{key: r[0], id: id, label: act.Label, kind: act.Kind}
		c.bindings = append(c.bindings, b)
		c.byKey[b.key] = b
	}
	sort.Slice(c.bindings, func(i, j int) bool { return c.bindings[i].key < c.bindings[j].key })
	return c, nil
}

// Handle trata uma tecla. Retorna ErrQuit para Esc, Ctrl+C ou q.
func (c *Console) Handle(r rune, key keyboard.Key) error {
	if key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || r == 'q' || r == 'Q' {
		return ErrQuit
	}
	b, ok := c.byKey[r]
	if !ok {
		c.last = fmt.Sprintf("no action bound to %q", r)
		return nil
	}
	if c.app.Submit(b.id) {
		c.last = "queued " + b.id
	} else {
		c.last = "queue full, dropped " + b.id
	}
	return nil
}

// Render escreve o menu com o estado atual das ações
func (c *Console) Render() {
	st := c.app.Status()
	fmt.Fprint(c.out, "\033[H\033[2J")
	fmt.Fprintln(c.out, chalk.Dim.TextStyle("multibox - "+st["clients"]))
	for _, b := range c.bindings {
		if b.kind == action.Toggle {
			if st[b.id] == "on" {
				fmt.Fprintln(c.out, chalk.Green.Color(fmt.Sprintf("[%c] %s [ON]", b.key, b.label)))
			} else {
				fmt.Fprintln(c.out, chalk.Red.Color(fmt.Sprintf("[%c] %s [OFF]", b.key, b.label)))
			}
			continue
		}
		line := fmt.Sprintf("[%c] %s", b.key, b.label)
		if s := st[b.id]; s != "" {
			line += " (" + s + ")"
		}
		fmt.Fprintln(c.out, chalk.Cyan.Color(line))
	}
	for _, u := range c.app.Usage() {
		line := fmt.Sprintf("[LIMIT] %s %d/%d", u.Group, u.Used, u.Limit)
		if u.Remaining == 0 {
			fmt.Fprintln(c.out, chalk.Red.Color(line))
		} else {
			fmt.Fprintln(c.out, chalk.Dim.TextStyle(line))
		}
	}
	if route := st["route"]; route != "" {
		fmt.Fprintln(c.out, chalk.Yellow.Color("[ROUTE] "+route))
	}
	if c.last != "" {
		fmt.Fprintln(c.out, chalk.Dim.TextStyle(c.last))
	}
	fmt.Fprintln(c.out, chalk.Red.Color("[Q] Exit"))
}

type keyEvent struct {
	r   rune
	key keyboard.Key
	err error
}

// Run lê o teclado até ctx acabar ou o usuário sair
func (c *Console) Run(ctx context.Context) error {
	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("opening keyboard: %w", err)
	}
	defer keyboard.Close()

	events := make(chan keyEvent)
	go func() {
		for {
			r, key, err := keyboard.GetKey()
			select {
			case events <- keyEvent{r, key, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	refresh := time.NewTicker(time.Second)
	defer refresh.Stop()
	c.Render()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev.err != nil {
				return fmt.Errorf("reading keyboard: %w", ev.err)
			}
			if err := c.Handle(ev.r, ev.key); err != nil {
				return err
			}
			c.Render()
		case <-refresh.C:
			c.Render()
		}
	}
}
