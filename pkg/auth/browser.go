package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"linkfeed/pkg/logger"
)

const (
	loginURL     = "https://www.linkedin.com/login"
	loginTimeout = 5 * time.Minute
	pollInterval = 2 * time.Second
)

// BrowserLogin drives an interactive browser login. It opens a visible
// browser window, waits for the user to complete the login flow, and
// captures the resulting session cookies.
type BrowserLogin struct {
	logger logger.Logger
}

// NewBrowserLogin creates a browser login helper
func NewBrowserLogin(log logger.Logger) *BrowserLogin {
	if log == nil {
		log = logger.GetLogger()
	}
	return &BrowserLogin{logger: log}
}

// Login opens the login page and blocks until the auth cookie appears
// or the timeout elapses. Returns the captured session.
func (b *BrowserLogin) Login(ctx context.Context, username string) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-gpu", false),
		chromedp.Flag("start-maximized", true),
		// Hide navigator.webdriver so the login flow treats this like a
		// regular browser
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	b.logger.Info("opening browser for interactive login")

	if err := chromedp.Run(browserCtx, chromedp.Navigate(loginURL)); err != nil {
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}

	cookies, err := b.waitForLogin(browserCtx)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	var userAgent string
	_ = chromedp.Run(browserCtx, chromedp.Evaluate("navigator.userAgent", &userAgent))

	cookieMap := make(map[string]string, len(cookies))
	for _, c := range cookies {
		cookieMap[c.Name] = c.Value
	}

	session := NewSession(username, cookieMap, userAgent)

	b.logger.InfoWithFields("browser login completed", map[string]interface{}{
		"username": username,
		"cookies":  len(cookieMap),
	})

	return session, nil
}

// waitForLogin polls for the auth cookie until the user finishes
// logging in
func (b *BrowserLogin) waitForLogin(ctx context.Context) ([]*network.Cookie, error) {
	timeout := time.After(loginTimeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, fmt.Errorf("login timeout exceeded")
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			cookies, err := extractCookies(ctx)
			if err != nil {
				continue
			}
			for _, c := range cookies {
				if c.Name == sessionCookieName && c.Value != "" {
					return cookies, nil
				}
			}
		}
	}
}

// extractCookies gets all cookies from the browser
func extractCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}
