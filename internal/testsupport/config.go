package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique state directory per test.
// The broker points at localhost so nothing leaves the machine.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.MQTT.Broker = "tcp://127.0.0.1:1883"
	cfgVal.MQTT.ClientID = "blinkcode-test"
	cfgVal.MQTT.ConnectTimeout = 1
	cfgVal.Workflow.ConsumerPollMS = 5
	cfgVal.Workflow.SignalPollMS = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithNtfyTopic points notifications at url.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// WithFakeSysfs selects the sysfs indicator driver backed by an exported fake
// GPIO tree under the test directory.
func WithFakeSysfs(pin int) ConfigOption {
	return func(b *configBuilder) {
		root := filepath.Join(b.baseDir, "gpio")
		pinDir := filepath.Join(root, "gpio"+strconv.Itoa(pin))
		if err := os.MkdirAll(pinDir, 0o755); err != nil {
			b.t.Fatalf("mkdir fake sysfs: %v", err)
		}
		for _, name := range []string{filepath.Join(root, "export"), filepath.Join(pinDir, "direction"), filepath.Join(pinDir, "value")} {
			if err := os.WriteFile(name, nil, 0o644); err != nil {
				b.t.Fatalf("write %s: %v", name, err)
			}
		}
		b.cfg.Indicator.Driver = config.IndicatorDriverSysfs
		b.cfg.Indicator.SysfsRoot = root
		b.cfg.Indicator.GPIOPin = pin
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
