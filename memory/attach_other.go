//go:build !windows

package memory

// Attach só é suportado no Windows
func Attach(pid uint32, module string) (*Accessor, error) {
	return nil, ErrUnsupported
}
