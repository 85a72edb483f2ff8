package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

const (
	// SignInURL lands on the Sony account page, which asks for a sign-in when there is no session.
	SignInURL = "https://my.account.sony.com/"
	// SSOCookieURL returns {"npsso": "..."} for a signed-in browser session.
	SSOCookieURL = "https://ca.account.sony.com/api/v1/ssocookie"
)

// CaptureOptions configures CaptureNpsso.
type CaptureOptions struct {
	// Headless only works with a UserDataDir that already holds a signed-in session.
	Headless    bool
	UserDataDir string
	Timeout     time.Duration
}

// CaptureNpsso opens a Chrome window, waits for the user to sign in to their Sony account,
// and reads the NPSSO value of the resulting session.
func CaptureNpsso(ctx context.Context, opts CaptureOptions) (string, error) {
	browserCtx, cancel, err := createChromeContext(ctx, opts)
	if err != nil {
		return "", err
	}
	defer cancel()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	log.Info().Msg("Waiting for Sony account sign-in.")
	var body string
	err = chromedp.Run(timeoutCtx,
		chromedp.Navigate(SignInURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for {
				var currentURL string
				if err := chromedp.Location(&currentURL).Do(ctx); err != nil {
					return err
				}
				if signedIn(currentURL) {
					return nil
				}
				select {
				case <-time.After(500 * time.Millisecond):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}),
		chromedp.Navigate(SSOCookieURL),
		chromedp.Text("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to capture NPSSO from browser session: %w", err)
	}
	return parseSSOCookie(body)
}

// signedIn reports whether the browser reached the account management pages, which require a session.
func signedIn(currentURL string) bool {
	parsed, err := url.Parse(currentURL)
	if err != nil {
		return false
	}
	return parsed.Host == "my.account.sony.com" &&
		strings.HasPrefix(parsed.Path, "/central/") &&
		!strings.Contains(parsed.Path, "signin")
}

// parseSSOCookie extracts the NPSSO from the ssocookie endpoint's response body.
func parseSSOCookie(body string) (string, error) {
	var result struct {
		Npsso string `json:"npsso"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &result); err != nil {
		return "", fmt.Errorf("failed to parse ssocookie response: %w", err)
	}
	if result.Npsso == "" {
		return "", errors.New("ssocookie response does not contain an NPSSO; is the browser signed in?")
	}
	return result.Npsso, nil
}

func createChromeContext(parent context.Context, opts CaptureOptions) (context.Context, context.CancelFunc, error) {
	var execPath string
	if p, err := exec.LookPath("google-chrome"); err == nil {
		execPath = p
	} else if p, err := exec.LookPath("chromium"); err == nil {
		execPath = p
	} else if p, err := exec.LookPath("chrome"); err == nil {
		execPath = p
	} else {
		return nil, nil, fmt.Errorf("no Chrome or Chromium executable found in PATH")
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	allocatorCtx, cancelAllocator := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancelContext := chromedp.NewContext(allocatorCtx, chromedp.WithLogf(chromeDebugLogf))
	return ctx, func() {
		cancelContext()
		cancelAllocator()
	}, nil
}

// chromeDebugLogf forwards chromedp log lines, one zerolog event per line.
func chromeDebugLogf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}
