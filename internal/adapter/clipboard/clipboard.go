// Package clipboard writes receipt tokens to the host clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/example/zari-storefront/internal/domain"
)

// ErrUnsupported is returned when the host has no clipboard utility.
var ErrUnsupported = errors.New("clipboard: not supported on this host")

// System uses the host clipboard (pbcopy, xclip, xsel, wl-copy or the Windows API).
type System struct{}

// NewSystem returns nil and ErrUnsupported when no clipboard utility is available.
func NewSystem() (*System, error) {
	if clipboard.Unsupported {
		return nil, ErrUnsupported
	}
	return &System{}, nil
}

func (System) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

// Memory keeps the last written text; used where no desktop is attached.
type Memory struct {
	mu   sync.Mutex
	last string
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	m.last = text
	m.mu.Unlock()
	return nil
}

func (m *Memory) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

var (
	_ domain.Clipboard = System{}
	_ domain.Clipboard = (*Memory)(nil)
)
