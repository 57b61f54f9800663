package zerodha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openkite/goindiatrader/common/crypto"
	exchange "github.com/openkite/goindiatrader/exchanges"
)

// tokenExpiryHour is the hour of day, IST, at which Kite invalidates all
// access tokens issued the previous day
const tokenExpiryHour = 6

// tokenCache is the on-disk representation of a cached session token
type tokenCache struct {
	AccessToken string    `json:"access_token"`
	LoginTime   time.Time `json:"login_time"`
}

// TokenCachePath returns the file the session token is cached in
func (z *Zerodha) TokenCachePath() string {
	if z.tokenCachePath != "" {
		return z.tokenCachePath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cache", "goindiatrader", "zerodha.json")
}

// ensureAccessToken makes sure a usable access token is present before a
// private call, loading the cached one if the config did not supply any
func (z *Zerodha) ensureAccessToken() error {
	if z.API.Credentials.AccessToken == "" {
		z.loadAccessToken()
	}
	if z.API.Credentials.AccessToken == "" || tokenExpired(z.loginTime, time.Now()) {
		return fmt.Errorf("%w: %s access token is missing or expired, run the daily login workflow to obtain a new one",
			exchange.ErrAuthenticationFailed, z.Name)
	}
	return nil
}

// loadAccessToken reads the cached session token from disk. A missing or
// unreadable cache is not an error, the caller reports the absent token
func (z *Zerodha) loadAccessToken() {
	data, err := os.ReadFile(z.TokenCachePath())
	if err != nil {
		return
	}
	var cache tokenCache
	if err := json.Unmarshal(data, &cache); err != nil {
		log.WithError(err).WithField("path", z.TokenCachePath()).
			Warn("discarding unreadable token cache")
		return
	}
	z.API.Credentials.AccessToken = cache.AccessToken
	z.loginTime = cache.LoginTime
}

// storeAccessToken persists a freshly issued session token so subsequent
// runs can reuse it until the daily expiry
func (z *Zerodha) storeAccessToken(accessToken string, loginTime time.Time) error {
	path := z.TokenCachePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(tokenCache{AccessToken: accessToken, LoginTime: loginTime})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// tokenExpired reports whether a token issued at loginTime is no longer
// valid at now. Kite invalidates tokens at 06:00 IST the morning after
// login; tokens with no recorded login time are assumed fresh as they were
// supplied directly by the caller
func tokenExpired(loginTime, now time.Time) bool {
	if loginTime.IsZero() {
		return false
	}
	login := loginTime.In(indiaTime)
	expiry := time.Date(login.Year(), login.Month(), login.Day(), tokenExpiryHour, 0, 0, 0, indiaTime).AddDate(0, 0, 1)
	return !now.In(indiaTime).Before(expiry)
}

// GenerateSession exchanges a request token obtained from the manual login
// flow for an access token. The checksum is the SHA-256 digest of api_key +
// request_token + api_secret
func (z *Zerodha) GenerateSession(ctx context.Context, requestToken string) (UserSession, error) {
	var resp UserSession
	if err := z.ValidateCredentials(); err != nil {
		return resp, err
	}

	checksum := crypto.HexEncodeToString(
		crypto.GetSHA256([]byte(z.API.Credentials.Key + requestToken + z.API.Credentials.Secret)))

	params := url.Values{}
	params.Set("api_key", z.API.Credentials.Key)
	params.Set("request_token", requestToken)
	params.Set("checksum", checksum)

	if err := z.SendHTTPRequest(ctx, http.MethodPost, kiteSessionToken, params, &resp); err != nil {
		return resp, err
	}

	z.API.Credentials.AccessToken = resp.AccessToken
	z.loginTime = resp.LoginTime.Time
	if err := z.storeAccessToken(resp.AccessToken, resp.LoginTime.Time); err != nil {
		log.WithError(err).Warn("unable to cache session token")
	}
	return resp, nil
}

// InvalidateSession logs out the current session, invalidating the access
// token server side
func (z *Zerodha) InvalidateSession(ctx context.Context) error {
	if err := z.ensureAccessToken(); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("api_key", z.API.Credentials.Key)
	params.Set("access_token", z.API.Credentials.AccessToken)

	var resp bool
	if err := z.SendHTTPRequest(ctx, http.MethodDelete, kiteSessionToken, params, &resp); err != nil {
		return err
	}

	z.API.Credentials.AccessToken = ""
	z.loginTime = time.Time{}
	if err := os.Remove(z.TokenCachePath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
