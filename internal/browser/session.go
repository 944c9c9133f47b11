// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/api/schemas"
	"github.com/xkilldash9x/charterbots/internal/config"
	"github.com/xkilldash9x/charterbots/internal/humanoid"
	"github.com/xkilldash9x/charterbots/internal/locate"
)

const (
	defaultNavigationTimeout  = 45 * time.Second
	defaultNetworkIdleTimeout = 15 * time.Second
	defaultActionTimeout      = 10 * time.Second
	// networkQuietMs is how long the resource list must stay unchanged.
	networkQuietMs = 500
)

// jsClearStorage wipes web storage for the current origin. Opaque origins
// (about:blank) throw on access, which is not an error here.
const jsClearStorage = `(function() {
	try { window.localStorage.clear(); } catch (e) {}
	try { window.sessionStorage.clear(); } catch (e) {}
	return true;
})()`

// jsNetworkIdle resolves once the document is complete and no new resource
// entries have appeared for the quiet window.
const jsNetworkIdle = `new Promise(resolve => {
	let last = performance.getEntriesByType('resource').length;
	let quiet = 0;
	const iv = setInterval(() => {
		const n = performance.getEntriesByType('resource').length;
		if (n === last && document.readyState === 'complete') {
			quiet += 100;
			if (quiet >= %d) { clearInterval(iv); resolve(true); }
		} else {
			quiet = 0;
			last = n;
		}
	}, 100);
})`

// evasionScript runs before any page script in every document of the tab.
const evasionScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// Session is a single browser tab owned by one journey.
type Session struct {
	id          string
	baseURL     string
	cfg         config.BrowserConfig
	fingerprint schemas.Fingerprint
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// run executes actions against the tab. Tests replace it.
	run func(ctx context.Context, actions ...chromedp.Action) error

	exec      *cdpExecutor
	closeOnce sync.Once
	onClose   func()
}

func newSession(taskCtx, browserCtx context.Context, cfg config.BrowserConfig, fp schemas.Fingerprint, logger *zap.Logger) (*Session, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	id := uuid.NewString()
	s := &Session{
		id:          id,
		baseURL:     cfg.BaseURL,
		cfg:         cfg,
		fingerprint: fp,
		logger:      logger.With(zap.String("session_id", id)),
		ctx:         tabCtx,
		cancel:      cancel,
	}
	s.run = s.RunActions
	s.exec = &cdpExecutor{
		logger:         s.logger.Named("executor"),
		timeout:        s.actionTimeout(),
		runActionsFunc: s.RunActions,
	}

	if err := attachTab(taskCtx, tabCtx, s.actionTimeout()); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}

	initCtx, initCancel := context.WithTimeout(taskCtx, s.actionTimeout())
	defer initCancel()
	if err := s.run(initCtx, applyFingerprint(fp, s.logger)); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to apply fingerprint: %w", err)
	}

	s.logger.Debug("Browser session opened.", zap.String("timezone", fp.Timezone))
	return s, nil
}

// attachTab creates the tab's target. chromedp binds a target's message loop
// to the context of its first Run, so that Run must happen on tabCtx itself
// and the deadline is enforced from outside.
func attachTab(ctx, tabCtx context.Context, timeout time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		errc <- chromedp.Run(tabCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-errc:
		return err
	case <-timer.C:
		return fmt.Errorf("tab did not attach within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// applyFingerprint makes the tab present the configured client.
func applyFingerprint(fp schemas.Fingerprint, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser fingerprint",
		zap.String("userAgent", fp.UserAgent),
		zap.String("platform", fp.Platform),
		zap.String("timezone", fp.Timezone),
	)

	override := emulation.SetUserAgentOverride(fp.UserAgent).WithPlatform(fp.Platform)
	if len(fp.Languages) > 0 {
		override = override.WithAcceptLanguage(strings.Join(fp.Languages, ","))
	}

	return chromedp.Tasks{
		override,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(evasionScript).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasion script: %w", err)
			}
			return nil
		}),
		emulation.SetTimezoneOverride(fp.Timezone),
		emulation.SetLocaleOverride().WithLocale(fp.Locale),
		emulation.SetDeviceMetricsOverride(fp.Width, fp.Height, 1.0, fp.Mobile),
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string { return s.id }

// ClientTZ is the timezone the tab reports to page scripts.
func (s *Session) ClientTZ() string { return s.fingerprint.Timezone }

// Executor returns the humanoid executor bound to this tab.
func (s *Session) Executor() humanoid.Executor { return s.exec }

// RunActions executes chromedp actions on the tab, bounded by ctx as well as
// the tab's own lifetime.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate opens path relative to the configured base URL and waits for load.
func (s *Session) Navigate(ctx context.Context, path string) error {
	target, err := resolveURL(s.baseURL, path)
	if err != nil {
		return err
	}

	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Debug("Navigating.", zap.String("url", target))
	if err := s.run(opCtx, chromedp.Navigate(target)); err != nil {
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("navigation to %s timed out after %s: %w", target, timeout, opCtx.Err())
		}
		return fmt.Errorf("navigation to %s failed: %w", target, err)
	}
	return nil
}

// ClearState removes cookies and web storage so the journey starts as a
// first-time visitor.
func (s *Session) ClearState(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, s.actionTimeout())
	defer cancel()

	var ok bool
	err := s.run(opCtx,
		network.ClearBrowserCookies(),
		chromedp.Evaluate(jsClearStorage, &ok),
	)
	if err != nil {
		return fmt.Errorf("failed to clear browser state: %w", err)
	}
	return nil
}

// WaitNetworkIdle blocks until the page stops requesting resources. Running
// out of time is a failure.
func (s *Session) WaitNetworkIdle(ctx context.Context) error {
	timeout := s.cfg.NetworkIdleTimeout
	if timeout <= 0 {
		timeout = defaultNetworkIdleTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var idle bool
	err := s.run(opCtx, chromedp.Evaluate(fmt.Sprintf(jsNetworkIdle, networkQuietMs), &idle, awaitPromise))
	if err != nil {
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out waiting for network idle after %s: %w", timeout, opCtx.Err())
		}
		return fmt.Errorf("failed waiting for network idle: %w", err)
	}
	return nil
}

// Probe resolves l against the live page. A hit tags the element and returns
// a selector that addresses exactly that element.
func (s *Session) Probe(ctx context.Context, l locate.Locator) (string, bool, error) {
	ref := locate.NewRef()
	script, err := locate.ProbeScript(l, ref)
	if err != nil {
		return "", false, err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.actionTimeout())
	defer cancel()

	var found bool
	if err := s.run(opCtx, chromedp.Evaluate(script, &found)); err != nil {
		return "", false, fmt.Errorf("probe %s failed: %w", l, err)
	}
	if !found {
		return "", false, nil
	}
	return locate.SelectorForRef(ref), true, nil
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Browser session closed.")
	})
	return nil
}

func (s *Session) actionTimeout() time.Duration {
	if s.cfg.ActionTimeout > 0 {
		return s.cfg.ActionTimeout
	}
	return defaultActionTimeout
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// resolveURL joins an entry route onto the base URL. Absolute URLs pass through.
func resolveURL(base, path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid route %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	b, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil || b.Scheme == "" || b.Host == "" {
		return "", fmt.Errorf("invalid base url %q", base)
	}
	ref.Path = strings.TrimLeft(ref.Path, "/")
	return b.ResolveReference(ref).String(), nil
}
