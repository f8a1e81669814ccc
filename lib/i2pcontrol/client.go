package i2pcontrol

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/logger"
	"github.com/patrickmn/go-cache"
	"github.com/samber/oops"
	"github.com/ybbus/jsonrpc/v2"
	"golang.org/x/time/rate"
)

var log = logger.GetGoI2PLogger()

const tokenKey = "token"

// Client talks to one router's I2PControl endpoint. It is safe for
// concurrent use.
type Client struct {
	cfg    config.I2PControlConfig
	rpc    jsonrpc.RPCClient
	tokens *cache.Cache
	// authMu keeps concurrent callers from authenticating in parallel.
	authMu sync.Mutex
}

// NewClient creates a client for cfg. No connection is made until the
// first call.
func NewClient(cfg config.I2PControlConfig) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.UseHTTPS && cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			// The router ships a self-signed certificate.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	expiration := cfg.TokenExpiration
	if expiration <= 0 {
		expiration = 10 * time.Minute
	}
	log.WithFields(logger.Fields{
		"at":  "i2pcontrol.NewClient",
		"url": cfg.URL(),
	}).Debug("created I2PControl client")
	return &Client{
		cfg:    cfg,
		rpc:    jsonrpc.NewClientWithOpts(cfg.URL(), &jsonrpc.RPCClientOpts{HTTPClient: httpClient}),
		tokens: cache.New(expiration, 2*expiration),
	}
}

// Authenticate exchanges the configured password for a session token and
// caches it.
func (c *Client) Authenticate() (string, error) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.authenticateLocked()
}

func (c *Client) authenticateLocked() (string, error) {
	var result struct {
		API   int    `json:"API"`
		Token string `json:"Token"`
	}
	params := map[string]interface{}{
		"API":      APIVersion,
		"Password": c.cfg.Password,
	}
	if err := c.do(MethodAuthenticate, params, &result); err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", oops.Errorf("i2pcontrol %s: empty token", MethodAuthenticate)
	}
	c.tokens.SetDefault(tokenKey, result.Token)
	log.WithFields(logger.Fields{
		"at":  "i2pcontrol.Authenticate",
		"api": result.API,
	}).Debug("authenticated")
	return result.Token, nil
}

// SetPassword replaces the password and drops the cached token, so the
// next call authenticates with the new one.
func (c *Client) SetPassword(password string) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	c.cfg.Password = password
	c.tokens.Delete(tokenKey)
}

func (c *Client) token() (string, error) {
	if tok, ok := c.tokens.Get(tokenKey); ok {
		return tok.(string), nil
	}
	c.authMu.Lock()
	defer c.authMu.Unlock()
	// Another caller may have authenticated while we waited.
	if tok, ok := c.tokens.Get(tokenKey); ok {
		return tok.(string), nil
	}
	return c.authenticateLocked()
}

// call performs an authenticated request, renewing the token once if the
// router rejects it.
func (c *Client) call(method string, params map[string]interface{}, out interface{}) error {
	for attempt := 0; ; attempt++ {
		tok, err := c.token()
		if err != nil {
			return err
		}
		withToken := make(map[string]interface{}, len(params)+1)
		for k, v := range params {
			withToken[k] = v
		}
		withToken["Token"] = tok

		err = c.do(method, withToken, out)
		if err == nil || attempt > 0 || !IsTokenError(err) {
			return err
		}
		log.WithError(err).WithField("method", method).Debug("token rejected, re-authenticating")
		c.tokens.Delete(tokenKey)
	}
}

func (c *Client) do(method string, params map[string]interface{}, out interface{}) error {
	resp, err := c.rpc.Call(method, params)
	if err != nil {
		return oops.Wrapf(err, "i2pcontrol %s", method)
	}
	if resp == nil {
		return oops.Errorf("i2pcontrol %s: empty response", method)
	}
	if resp.Error != nil {
		return &RPCError{
			Method:  method,
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
			Data:    resp.Error.Data,
		}
	}
	if out == nil {
		return nil
	}
	if err := resp.GetObject(out); err != nil {
		return oops.Wrapf(err, "i2pcontrol %s: decode result", method)
	}
	return nil
}

// Echo asks the router to return value unchanged.
func (c *Client) Echo(value string) (string, error) {
	var result struct {
		Result string `json:"Result"`
	}
	if err := c.call(MethodEcho, map[string]interface{}{"Echo": value}, &result); err != nil {
		return "", err
	}
	return result.Result, nil
}

// Ping succeeds when the router answers an authenticated Echo.
func (c *Client) Ping() error {
	const probe = "ping"
	got, err := c.Echo(probe)
	if err != nil {
		return err
	}
	if got != probe {
		return oops.Errorf("i2pcontrol %s: unexpected reply %q", MethodEcho, got)
	}
	return nil
}

// RouterInfo fetches the named RouterInfo fields.
func (c *Client) RouterInfo(fields ...string) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		params[f] = nil
	}
	result := make(map[string]interface{})
	if err := c.call(MethodRouterInfo, params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Status fetches the router's status summary.
func (c *Client) Status() (RouterStatus, error) {
	info, err := c.RouterInfo(
		"i2p.router.status",
		"i2p.router.net.status",
		"i2p.router.version",
		"i2p.router.uptime",
	)
	if err != nil {
		return RouterStatus{}, err
	}
	var st RouterStatus
	st.Status, _ = info["i2p.router.status"].(string)
	st.Version, _ = info["i2p.router.version"].(string)
	st.NetStatus = NetStatusError
	if n, ok := info["i2p.router.net.status"].(float64); ok {
		st.NetStatus = NetStatus(n)
	}
	if n, ok := info["i2p.router.uptime"].(float64); ok {
		st.Uptime = int64(n)
	}
	return st, nil
}

// Shutdown asks the router to shut down gracefully.
func (c *Client) Shutdown() error {
	return c.call(MethodRouterManager, map[string]interface{}{"Shutdown": nil}, nil)
}

// WaitReady polls Ping until it succeeds or ctx ends. Probes are spaced at
// least interval apart.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			if lastErr != nil {
				return oops.Wrapf(lastErr, "router not ready after %d attempts", attempt-1)
			}
			return oops.Wrapf(err, "router not ready")
		}
		if lastErr = c.Ping(); lastErr == nil {
			log.WithFields(logger.Fields{
				"at":       "i2pcontrol.WaitReady",
				"attempts": attempt,
			}).Info("router answering I2PControl")
			return nil
		}
		log.WithError(lastErr).WithFields(logger.Fields{
			"at":      "i2pcontrol.WaitReady",
			"attempt": attempt,
		}).Debug("router not ready yet")
	}
}
