// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/api/schemas"
	"github.com/xkilldash9x/charterbots/internal/config"
)

const defaultLaunchTimeout = 30 * time.Second

// Manager owns the headless browser process. Every journey gets its own tab
// through NewSession; the process itself is shared.
type Manager struct {
	logger      *zap.Logger
	cfg         config.BrowserConfig
	fingerprint schemas.Fingerprint

	// allocatorCtx manages the browser process. browserCtx is the first tab,
	// kept open so that closing a session's tab never takes the process down.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	// wg tracks open sessions for a graceful shutdown.
	wg sync.WaitGroup
}

// NewManager launches the browser process and verifies it responds.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		logger:      logger.Named("browser_manager"),
		cfg:         cfg,
		fingerprint: cfg.Fingerprint(),
	}

	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launchBrowser starts the process and runs a trivial navigation to confirm it is alive.
func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...", zap.Bool("headless", m.cfg.Headless))

	m.allocatorCtx, m.allocatorCancel = chromedp.NewExecAllocator(context.WithoutCancel(ctx), buildAllocatorOptions(m.cfg, m.fingerprint)...)
	m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocatorCtx)

	timeout := m.cfg.LaunchTimeout
	if timeout <= 0 {
		timeout = defaultLaunchTimeout
	}

	// The first Run allocates the process, and cancelling the context it runs
	// under would kill it. The deadline is therefore enforced from outside.
	errc := make(chan error, 1)
	go func() {
		errc <- chromedp.Run(m.browserCtx, chromedp.Navigate("about:blank"))
	}()

	select {
	case err := <-errc:
		if err != nil {
			m.browserCancel()
			m.allocatorCancel()
			return fmt.Errorf("browser failed to start or respond: %w", err)
		}
	case <-time.After(timeout):
		m.browserCancel()
		m.allocatorCancel()
		return fmt.Errorf("browser did not respond within %s", timeout)
	case <-ctx.Done():
		m.browserCancel()
		m.allocatorCancel()
		return ctx.Err()
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the launch options for the browser process.
func buildAllocatorOptions(cfg config.BrowserConfig, fp schemas.Fingerprint) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range launchFlags(cfg, fp) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return append(opts,
		chromedp.WindowSize(int(fp.Width), int(fp.Height)),
		chromedp.UserAgent(fp.UserAgent),
	)
}

// launchFlags returns the command-line flags layered over chromedp's defaults.
// A false value removes a default flag.
func launchFlags(cfg config.BrowserConfig, fp schemas.Fingerprint) map[string]interface{} {
	// enable-automation advertises automation to page scripts and the blink
	// feature exposes navigator.webdriver; both are switched off.
	flags := map[string]interface{}{
		"enable-automation":         false,
		"headless":                  cfg.Headless,
		"ignore-certificate-errors": cfg.IgnoreTLSErrors,
		"disable-blink-features":    "AutomationControlled",
		"disable-extensions":        true,
		"disable-gpu":               cfg.Headless,
	}
	if fp.Locale != "" {
		flags["lang"] = fp.Locale
	}

	// Containers (Docker on Linux) need these.
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
		flags["disable-setuid-sandbox"] = true
	}

	// Custom arguments from the config file win over everything above.
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if flagName == "" {
			continue
		}
		if len(parts) == 2 {
			flags[flagName] = parts[1]
		} else {
			flags[flagName] = true
		}
	}
	return flags
}

// NewSession opens a fresh tab with the configured fingerprint applied.
// The caller owns the session and must Close it.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	s, err := newSession(ctx, m.browserCtx, m.cfg, m.fingerprint, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser session: %w", err)
	}

	m.wg.Add(1)
	s.onClose = m.wg.Done
	return s, nil
}

// Shutdown waits for open sessions to close, respecting the caller's deadline,
// and then terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated. Waiting for active sessions to complete...")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions have completed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.allocatorCancel != nil {
		m.logger.Info("Shutting down main browser process...")
		m.browserCancel()
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}
	return nil
}
