package indicator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Sysfs drives a GPIO line through the legacy sysfs interface.
type Sysfs struct {
	mu        sync.Mutex
	root      string
	pin       int
	activeLow bool
	valuePath string
}

// udev may take a moment to apply permissions after export.
const exportSettle = 100 * time.Millisecond

// OpenSysfs exports pin under root when needed and configures it as an
// output driven low.
func OpenSysfs(root string, pin int, activeLow bool) (*Sysfs, error) {
	if pin < 0 {
		return nil, fmt.Errorf("gpio: invalid pin %d", pin)
	}
	pinDir := filepath.Join(root, "gpio"+strconv.Itoa(pin))
	if _, err := os.Stat(pinDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("gpio: stat %s: %w", pinDir, err)
		}
		if err := writeFile(filepath.Join(root, "export"), strconv.Itoa(pin)); err != nil {
			return nil, fmt.Errorf("gpio: export pin %d: %w", pin, err)
		}
		time.Sleep(exportSettle)
	}
	if err := writeFile(filepath.Join(pinDir, "direction"), "out"); err != nil {
		return nil, fmt.Errorf("gpio: pin %d direction: %w", pin, err)
	}
	s := &Sysfs{
		root:      root,
		pin:       pin,
		activeLow: activeLow,
		valuePath: filepath.Join(pinDir, "value"),
	}
	if err := s.Set(false); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sysfs) Name() string { return "gpio" + strconv.Itoa(s.pin) }

func (s *Sysfs) Set(on bool) error {
	level := on != s.activeLow
	value := "0"
	if level {
		value = "1"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFile(s.valuePath, value); err != nil {
		return fmt.Errorf("gpio: pin %d write: %w", s.pin, err)
	}
	return nil
}

// Close drives the light off.
func (s *Sysfs) Close() error {
	return s.Set(false)
}

// Probe reports whether the current process may drive pin under root without
// touching it: the pin's value file when exported, the export file otherwise.
func Probe(root string, pin int) error {
	target := filepath.Join(root, "gpio"+strconv.Itoa(pin), "value")
	if _, err := os.Stat(target); err != nil {
		target = filepath.Join(root, "export")
	}
	if err := unix.Access(target, unix.W_OK); err != nil {
		return fmt.Errorf("gpio: %s not writable: %w", target, err)
	}
	return nil
}

// ValuePath returns the sysfs value file backing the pin.
func (s *Sysfs) ValuePath() string { return s.valuePath }

func writeFile(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
