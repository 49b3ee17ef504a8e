package preflight

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/indicator"
)

const dialTimeout = 3 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckIndicator verifies the configured indicator can be driven.
func CheckIndicator(cfg *config.Config) Result {
	const name = "Indicator"
	switch cfg.Indicator.Driver {
	case config.IndicatorDriverSysfs:
		if err := indicator.Probe(cfg.Indicator.SysfsRoot, cfg.Indicator.GPIOPin); err != nil {
			return Result{Name: name, Detail: err.Error()}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("sysfs gpio%d writable", cfg.Indicator.GPIOPin)}
	default:
		return Result{Name: name, Passed: true, Detail: "log driver (no hardware)"}
	}
}

// CheckBroker verifies the MQTT broker accepts TCP connections.
func CheckBroker(ctx context.Context, broker string) Result {
	const name = "MQTT broker"
	u, err := url.Parse(broker)
	if err != nil || u.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: invalid url)", broker)}
	}
	return dialCheck(ctx, name, hostPort(u, brokerPort(u.Scheme)))
}

// CheckNtfy verifies the ntfy server host is reachable.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "ntfy"
	u, err := url.Parse(topic)
	if err != nil || u.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: invalid url)", topic)}
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return dialCheck(ctx, name, hostPort(u, port))
}

func dialCheck(ctx context.Context, name, address string) Result {
	checkCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	var dialer net.Dialer
	conn, err := dialer.DialContext(checkCtx, "tcp", address)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", address, err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", address)}
}

func hostPort(u *url.URL, defaultPort string) string {
	if u.Port() != "" {
		return u.Host
	}
	return net.JoinHostPort(u.Hostname(), defaultPort)
}

func brokerPort(scheme string) string {
	switch scheme {
	case "ssl", "tls", "mqtts":
		return "8883"
	case "ws":
		return "80"
	case "wss":
		return "443"
	default:
		return "1883"
	}
}
