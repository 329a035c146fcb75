// Package app monta o contexto da aplicação: personagens, topologia, ticker de
// override, ações e os loops que os dirigem.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/errgroup"

	"multibox/action"
	"multibox/character"
	"multibox/config"
	"multibox/freeze"
	"multibox/input"
	"multibox/limiter"
	"multibox/offset"
	"multibox/party"
)

// ErrQuit encerra Run sem erro
var ErrQuit = errors.New("quit requested")

// Options permite trocar as bordas com o sistema operacional nos testes
type Options struct {
	Logger     *slog.Logger
	Find       character.FindFunc
	Attach     character.AttachFunc
	Keys       action.Dispatcher
	Limiter    action.Limiter
	Foreground func() (uint32, bool)
	Now        func() time.Time
}

// App é o contexto explícito. Manager, topologia, coordenador e registro só são
// tocados pelo loop principal; o console conversa com ele pela fila de comandos.
type App struct {
	cfg *config.Settings
	log *slog.Logger

	manager  *character.Manager
	topo     *party.Cache
	ticker   *freeze.Ticker
	coord    *action.Coordinator
	registry *action.Registry
	keys     action.Dispatcher
	store    *limiter.Store

	foreground func() (uint32, bool)
	now        func() time.Time

	commands chan string
	active   uint32
	lastScan time.Time

	mu        deadlock.Mutex
	status    map[string]string
	heartbeat time.Time
}

// New monta o App a partir das configurações e da tabela de offsets já validada
func New(cfg *config.Settings, table *offset.Table, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Foreground == nil {
		opts.Foreground = input.ForegroundPID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	dedup, ok := offset.DedupByName(cfg.Dedup)
	if !ok {
		return nil, fmt.Errorf("unknown dedup strategy %q", cfg.Dedup)
	}
	level, err := action.ParseLevel(cfg.Permission)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		log:        opts.Logger,
		foreground: opts.Foreground,
		now:        opts.Now,
		commands:   make(chan string, 16),
		status:     make(map[string]string),
	}

	a.manager = character.NewManager(offset.NewResolver(table, offset.WithDedup(dedup)), character.ManagerOptions{
		ProcessName: cfg.ProcessName,
		ModuleName:  cfg.ModuleName,
		Find:        opts.Find,
		Attach:      opts.Attach,
		Logger:      opts.Logger,
	})
	a.topo = party.NewCache(a.manager, cfg.Intervals.TopologyTTL, party.WithClock(opts.Now), party.WithLogger(opts.Logger))
	a.ticker = freeze.NewTicker(cfg.Intervals.Freeze, opts.Logger)
	a.manager.OnRemove(a.forget)

	a.keys = opts.Keys
	if a.keys == nil {
		a.keys = input.NewDispatcher(a.pids)
	}

	lim := opts.Limiter
	if lim == nil {
		store, err := limiter.Open(cfg.UsageDB, limitGroups(cfg.Limits), opts.Logger)
		if err != nil {
			return nil, err
		}
		a.store = store
		lim = store
	}

	coordOpts := action.OptionsFromSettings(cfg)
	coordOpts.Logger = opts.Logger
	a.coord = action.NewCoordinator(a.keys, a.manager, a.ticker, coordOpts)
	a.registry = action.NewRegistry(action.StaticPermissions(level), lim, opts.Logger)
	if err := a.registerActions(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func limitGroups(in []config.LimitGroup) []limiter.Group {
	out := make([]limiter.Group, 0, len(in))
	for _, g := range in {
		out = append(out, limiter.Group{Name: g.Name, Limit: g.Limit, Actions: g.Actions})
	}
	return out
}

// forget limpa o que o App guarda de um processo que saiu
func (a *App) forget(pid uint32) {
	a.ticker.Clear(pid)
	a.topo.Invalidate()
	if a.active == pid {
		a.active = 0
	}
}

func (a *App) pids() []uint32 {
	chars := a.manager.Valid()
	out := make([]uint32, 0, len(chars))
	for _, c := range chars {
		out = append(out, c.PID)
	}
	return out
}

func (a *App) Manager() *character.Manager { return a.manager }
func (a *App) Registry() *action.Registry { return a.registry }
func (a *App) Coordinator() *action.Coordinator { return a.coord }

// Active retorna o último personagem que esteve com a janela em foco
func (a *App) Active() *character.Character {
	if a.active == 0 {
		return nil
	}
	c, ok := a.manager.Get(a.active)
	if !ok || !c.IsValid() {
		return nil
	}
	return c
}

// Submit enfileira uma ação para o loop principal. Retorna false com a fila cheia.
func (a *App) Submit(id string) bool {
	select {
	case a.commands <- id:
		return true
	default:
		a.log.Warn("command queue full", "action", id)
		return false
	}
}

// Status retorna uma cópia das linhas de status
func (a *App) Status() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.status))
	for k, v := range a.status {
		out[k] = v
	}
	return out
}

// Usage retorna o uso de hoje por grupo de limite. Vazio quando o limitador
// veio de fora pelas Options.
func (a *App) Usage() []limiter.Stat {
	if a.store == nil {
		return nil
	}
	stats, err := a.store.Stats()
	if err != nil {
		a.log.Warn("usage stats failed", "err", err)
		return nil
	}
	return stats
}

func (a *App) setStatus(key, value string) {
	a.mu.Lock()
	a.status[key] = value
	a.mu.Unlock()
}

// Tick é uma volta do loop principal
func (a *App) Tick() {
	now := a.now()
	a.mu.Lock()
	a.heartbeat = now
	a.mu.Unlock()

	if a.lastScan.IsZero() || now.Sub(a.lastScan) >= a.cfg.Intervals.Scan {
		a.lastScan = now
		if err := a.manager.Scan(); err != nil {
			a.log.Error("scan failed", "err", err)
		}
	}
	a.manager.RefreshAll()

	for _, c := range a.manager.Valid() {
		c.UpdateFlyTriggerCache()
		c.Behavior().OnTick(c)
	}
	if pid, ok := a.foreground(); ok {
		if c, ok := a.manager.Get(pid); ok && c.IsValid() {
			a.active = pid
		}
	}

	a.drain()
	a.registry.RunDue(now)
	a.setStatus("clients", fmt.Sprintf("%d/%d valid", len(a.manager.Valid()), a.manager.Len()))
}

func (a *App) drain() {
	for {
		select {
		case id := <-a.commands:
			a.execute(id)
		default:
			return
		}
	}
}

func (a *App) execute(id string) {
	ok, err := a.registry.Execute(id)
	act, _ := a.registry.Lookup(id)
	switch {
	case err != nil:
		a.log.Warn("action rejected", "action", id, "err", err)
		a.setStatus(id, err.Error())
	case act.Kind == action.Toggle && ok:
		a.setStatus(id, "on")
	case act.Kind == action.Toggle:
		a.setStatus(id, "off")
	case ok:
		a.setStatus(id, "ok")
	default:
		a.setStatus(id, "no effect")
	}
}

func (a *App) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("panic in main loop", "err", r)
		}
	}()
	a.Tick()
}

// Run dirige o loop principal e o watchdog até ctx acabar. Extra são loops
// adicionais (o console) que rodam no mesmo grupo; ErrQuit de um deles encerra
// tudo sem erro.
func (a *App) Run(ctx context.Context, extra ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t := time.NewTicker(a.cfg.Intervals.Tick)
		defer t.Stop()
		a.safeTick()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				a.safeTick()
			}
		}
	})
	g.Go(func() error { return a.watchdog(ctx) })
	for _, fn := range extra {
		fn := fn
		g.Go(func() error { return fn(ctx) })
	}

	err := g.Wait()
	a.registry.StopAll()
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

// watchdog avisa quando o loop principal deixa de bater
func (a *App) watchdog(ctx context.Context) error {
	limit := 10 * a.cfg.Intervals.Tick
	if limit < 5*time.Second {
		limit = 5 * time.Second
	}
	t := time.NewTicker(limit / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.mu.Lock()
			last := a.heartbeat
			a.mu.Unlock()
			if age := a.now().Sub(last); !last.IsZero() && age > limit {
				a.log.Warn("main loop may be stuck", "last_heartbeat", age)
			}
		}
	}
}

// Close desliga os toggles, solta os processos e fecha o banco de uso
func (a *App) Close() error {
	a.registry.StopAll()
	a.ticker.Stop()
	a.manager.Close()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
