package tool_youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	youtubeURL = "https://www.youtube.com/"

	searchSelector = `input[name="search_query"]`
	resultSelector = `ytd-video-renderer a#thumbnail, ytd-grid-video-renderer a#thumbnail`
	titleSelector  = `h1.title, h1.ytd-watch-metadata`
)

// BrowserConfig controls how the browser is found or launched.
type BrowserConfig struct {
	ControlURL  string // connect to a running Chrome instead of launching
	Bin         string
	UserDataDir string // reuse a profile so the user stays signed in
	Headless    bool
	Timeout     time.Duration // per playback
}

// BrowserPlayer drives a Chrome window through the DevTools protocol. The
// browser is started on first use and restarted if it has gone away.
type BrowserPlayer struct {
	mu      sync.Mutex
	cfg     BrowserConfig
	browser *rod.Browser
	page    *rod.Page
}

// NewBrowserPlayer creates a player; nothing is launched until Play.
func NewBrowserPlayer(cfg BrowserConfig) *BrowserPlayer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &BrowserPlayer{cfg: cfg}
}

// Play searches YouTube and clicks the first result.
func (p *BrowserPlayer) Play(ctx context.Context, query string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	page, err := p.ensurePage()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	title, err := play(page.Context(ctx), query)
	if err != nil && isClosedError(err) {
		toolsutil.GetLogger().Warn("browser closed during playback, will restart on next use", "error", err)
		p.reset()
	}
	return title, err
}

func play(page *rod.Page, query string) (string, error) {
	if err := page.Navigate(youtubeURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	// Cookie consent only shows in some regions.
	if btn, err := page.Timeout(5*time.Second).ElementR("button", "Accept all"); err == nil {
		_ = btn.Click(proto.InputMouseButtonLeft, 1)
	}

	search, err := page.Element(searchSelector)
	if err != nil {
		return "", fmt.Errorf("find search box: %w", err)
	}
	if err := search.Input(query); err != nil {
		return "", fmt.Errorf("type query: %w", err)
	}
	if err := search.Type(input.Enter); err != nil {
		return "", fmt.Errorf("submit search: %w", err)
	}

	result, err := page.Element(resultSelector)
	if err != nil {
		return "", fmt.Errorf("find first result: %w", err)
	}
	if err := result.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("open first result: %w", err)
	}

	heading, err := page.Timeout(10 * time.Second).Element(titleSelector)
	if err != nil {
		return "", ErrNoTitle
	}
	title, err := heading.Text()
	if err != nil || strings.TrimSpace(title) == "" {
		return "", ErrNoTitle
	}
	return strings.TrimSpace(title), nil
}

func (p *BrowserPlayer) ensurePage() (*rod.Page, error) {
	if p.browser != nil {
		if _, err := p.browser.Version(); err != nil {
			toolsutil.GetLogger().Info("browser connection lost, reconnecting", "error", err)
			p.reset()
		}
	}
	if p.browser == nil {
		if err := p.connect(); err != nil {
			return nil, err
		}
	}
	if p.page != nil {
		if _, err := p.page.Info(); err == nil {
			return p.page, nil
		}
		p.page = nil
	}

	pages, err := p.browser.Pages()
	if err == nil && len(pages) > 0 {
		p.page = pages.First()
		return p.page, nil
	}
	page, err := p.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	p.page = page
	return page, nil
}

func (p *BrowserPlayer) connect() error {
	controlURL := p.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(p.cfg.Headless)
		if p.cfg.Bin != "" {
			l = l.Bin(p.cfg.Bin)
		}
		if p.cfg.UserDataDir != "" {
			l = l.UserDataDir(p.cfg.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil && p.cfg.UserDataDir != "" {
			// Profile may be locked by a running Chrome.
			toolsutil.GetLogger().Warn("launch with user profile failed, falling back to a fresh profile", "error", err)
			u, err = launcher.New().Headless(p.cfg.Headless).Launch()
		}
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}
	p.browser = browser
	toolsutil.GetLogger().Info("browser started", "control_url", controlURL)
	return nil
}

func (p *BrowserPlayer) reset() {
	if p.browser != nil {
		_ = p.browser.Close()
	}
	p.browser = nil
	p.page = nil
}

// Close shuts the browser down.
func (p *BrowserPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.browser = nil
	p.page = nil
	return err
}

func isClosedError(err error) bool {
	return err != nil && !errors.Is(err, context.DeadlineExceeded) && strings.Contains(err.Error(), "closed")
}
