//go:build !windows

package input

// Dispatcher só entrega teclas no Windows
type Dispatcher struct {
	pids func() []uint32
}

func NewDispatcher(pids func() []uint32) *Dispatcher {
	return &Dispatcher{pids: pids}
}

func (d *Dispatcher) PressAll(key string) error {
	return d.PressFor(key, d.pids()...)
}

func (d *Dispatcher) PressFor(key string, pids ...uint32) error {
	if _, err := ParseCombo(key); err != nil {
		return err
	}
	return ErrUnsupported
}

func ForegroundPID() (uint32, bool) { return 0, false }
