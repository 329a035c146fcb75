package action

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrUnknownAction = errors.New("action: unknown action")
	ErrPermission    = errors.New("action: permission not granted")
	ErrLimited       = errors.New("action: daily limit reached")
)

// Level é o nível de permissão exigido por uma ação
type Level int

const (
	LevelNone Level = iota
	LevelTry
	LevelPro
	LevelDev
)

func (l Level) String() string {
	switch l {
	case LevelTry:
		return "try"
	case LevelPro:
		return "pro"
	case LevelDev:
		return "dev"
	}
	return "none"
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return LevelNone, nil
	case "try":
		return LevelTry, nil
	case "pro":
		return LevelPro, nil
	case "dev":
		return LevelDev, nil
	}
	return LevelNone, fmt.Errorf("unknown permission level: %q", s)
}

// Permissions responde se um nível foi concedido
type Permissions interface {
	Granted(l Level) bool
}

// StaticPermissions concede todos os níveis até o próprio valor
type StaticPermissions Level

func (p StaticPermissions) Granted(l Level) bool { return l <= Level(p) }

// Limiter controla o uso diário das ações limitadas
type Limiter interface {
	CanUse(action string) bool
	RecordUsage(action string) error
}

type Kind int

const (
	Quick Kind = iota
	Toggle
)

func (k Kind) String() string {
	if k == Toggle {
		return "toggle"
	}
	return "quick"
}

// Action é uma ação registrada. Quick executa Run uma vez; Toggle liga e desliga
// e, enquanto ligado, chama Tick a cada Interval.
type Action struct {
	ID         string
	Label      string
	Kind       Kind
	Permission Level

	Run      func() bool
	OnToggle func(active bool)
	Tick     func()
	Interval time.Duration
}

// Registry guarda as ações e o estado dos toggles. Usado só pelo loop principal.
type Registry struct {
	perms   Permissions
	limiter Limiter
	log     *slog.Logger

	actions  map[string]*Action
	order    []string
	active   map[string]bool
	lastTick map[string]time.Time
}

func NewRegistry(perms Permissions, limiter Limiter, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		perms:    perms,
		limiter:  limiter,
		log:      log,
		actions:  make(map[string]*Action),
		active:   make(map[string]bool),
		lastTick: make(map[string]time.Time),
	}
}

func (r *Registry) Register(a Action) error {
	if a.ID == "" {
		return fmt.Errorf("action id is required")
	}
	if _, ok := r.actions[a.ID]; ok {
		return fmt.Errorf("action %s already registered", a.ID)
	}
	if a.Kind == Quick && a.Run == nil {
		return fmt.Errorf("quick action %s needs Run", a.ID)
	}
	r.actions[a.ID] = &a
	r.order = append(r.order, a.ID)
	return nil
}

// Execute roda uma ação: permissão, depois limite, depois a ação. O uso só é
// registrado quando a ação reporta sucesso. Para toggles, o bool é o novo estado.
func (r *Registry) Execute(id string) (bool, error) {
	a, ok := r.actions[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}
	if r.perms == nil || !r.perms.Granted(a.Permission) {
		return false, fmt.Errorf("%w: %s requires %s", ErrPermission, id, a.Permission)
	}

	if a.Kind == Toggle {
		on := !r.active[id]
		r.setActive(a, on)
		return on, nil
	}

	if r.limiter != nil && !r.limiter.CanUse(id) {
		r.log.Warn("action limited", "action", id)
		return false, fmt.Errorf("%w: %s", ErrLimited, id)
	}
	done := r.safeRun(a)
	if done && r.limiter != nil {
		if err := r.limiter.RecordUsage(id); err != nil {
			r.log.Error("record usage failed", "action", id, "err", err)
		}
	}
	return done, nil
}

func (r *Registry) setActive(a *Action, on bool) {
	if on {
		r.active[a.ID] = true
		r.lastTick[a.ID] = time.Time{}
	} else {
		delete(r.active, a.ID)
		delete(r.lastTick, a.ID)
	}
	r.log.Info("toggle", "action", a.ID, "active", on)
	if a.OnToggle != nil {
		a.OnToggle(on)
	}
}

func (r *Registry) safeRun(a *Action) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic in action", "action", a.ID, "err", rec)
			ok = false
		}
	}()
	return a.Run()
}

func (r *Registry) IsActive(id string) bool { return r.active[id] }

// RunDue chama Tick dos toggles ligados cujo intervalo já passou
func (r *Registry) RunDue(now time.Time) {
	for _, id := range r.order {
		if !r.active[id] {
			continue
		}
		a := r.actions[id]
		if a.Tick == nil {
			continue
		}
		if last := r.lastTick[id]; !last.IsZero() && now.Sub(last) < a.Interval {
			continue
		}
		r.lastTick[id] = now
		r.safeTick(a)
	}
}

func (r *Registry) safeTick(a *Action) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic in toggle tick", "action", a.ID, "err", rec)
		}
	}()
	a.Tick()
}

// StopAll desliga todos os toggles ativos
func (r *Registry) StopAll() {
	for _, id := range r.order {
		if r.active[id] {
			r.setActive(r.actions[id], false)
		}
	}
}

// Actions retorna as ações na ordem de registro
func (r *Registry) Actions() []Action {
	out := make([]Action, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.actions[id])
	}
	return out
}

// Lookup retorna uma ação pelo id
func (r *Registry) Lookup(id string) (Action, bool) {
	a, ok := r.actions[id]
	if !ok {
		return Action{}, false
	}
	return *a, true
}
