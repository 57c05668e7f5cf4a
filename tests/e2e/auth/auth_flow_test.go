package auth

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/authd/internal/testutil"
	"github.com/avolkov/authd/tests/e2e"
)

const (
	RegisterURL = "/api/auth/register"
	LoginURL    = "/api/auth/login"
	RefreshURL  = "/api/auth/refresh"
	MeURL       = "/api/auth/me"
)

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return string(body)
}

func Test_AuthFlow(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		t.Run("register login refresh me", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				// Register
				data := `{"login": "nk", "display_name": "Nick K", "password": "StrongEnoughPassword"}`
				resp, err := http.Post(srvURL+RegisterURL, "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"message": "User registered successfully"
					}`, body)

				require.Equal(t, 1, len(resp.Cookies()))
				cookie := resp.Cookies()[0]
				require.Equal(t, "refreshtoken", cookie.Name)
				require.Equal(t, cookie.HttpOnly, true, "refresh cookie should be HttpOnly")
				require.Equal(t, "/", cookie.Path, "refresh cookie should be available on / path")
				require.Equal(t, http.SameSiteStrictMode, cookie.SameSite, "refresh cookie should be SameSite Strict")
				require.InDelta(t, (24 * time.Hour).Seconds(), cookie.MaxAge, 1, "max age should be refresh TTL with 1 second delta")
				require.NotEmpty(t, cookie.Value, "refresh cookie should not be empty")

				require.Contains(t, resp.Header, "Authorization")
				require.Contains(t, resp.Header.Get("Authorization"), "Bearer")

				// Login with registered credentials
				data = `{"login": "nk", "password": "StrongEnoughPassword"}`
				resp, err = http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body = readBody(t, resp)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"message": "User logged in successfully"
					}`, body)
				require.Equal(t, 1, len(resp.Cookies()))

				loginRefresh := resp.Cookies()[0]
				loginAccess := resp.Header.Get("Authorization")

				// Refresh: both tokens must be rolled
				req, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
				require.NoError(t, err)
				req.AddCookie(&http.Cookie{Name: loginRefresh.Name, Value: loginRefresh.Value})
				resp, err = http.DefaultClient.Do(req)
				require.NoError(t, err)
				body = readBody(t, resp)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"message": "Tokens refreshed successfully"
					}`, body)
				require.Equal(t, 1, len(resp.Cookies()))
				require.NotEqual(t, loginRefresh.Value, resp.Cookies()[0].Value, "refresh token should be changed after refresh")
				refreshedAccess := resp.Header.Get("Authorization")
				require.NotEqual(t, loginAccess, refreshedAccess, "access token should be changed after refresh")

				// Whoami with the refreshed access token
				req, err = http.NewRequest(http.MethodGet, srvURL+MeURL, nil)
				require.NoError(t, err)
				req.Header.Set("Authorization", refreshedAccess)
				resp, err = http.DefaultClient.Do(req)
				require.NoError(t, err)
				body = readBody(t, resp)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

				registered, err := s.UserService.LookupUser(t.Context(), "nk")
				require.NoError(t, err)
				require.JSONEq(t, fmt.Sprintf(`
					{
						"id": "%s",
						"login": "nk",
						"display_name": "Nick K"
					}`, registered.ID), body)
			})
		})

		t.Run("login with wrong password fails", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.UserService.Register(t.Context(), "nk", "", "StrongEnoughPassword")
				require.NoError(t, err)

				data := `{"login": "nk", "password": "WrongPassword"}`
				resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "Invalid credentials"
					}`, body)

				require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set on login error")
				require.NotContains(t, resp.Header, "Authorization", "Authorization header should not be set")
			})
		})

		t.Run("deactivated user can't login or use tokens", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				registered, err := s.UserService.Register(t.Context(), "nk", "", "StrongEnoughPassword")
				require.NoError(t, err)

				// Tokens issued while the user was active
				pair, err := s.AuthService.IssuePair(registered.ID.String(), nil)
				require.NoError(t, err)

				_, err = s.UserService.SetActive(t.Context(), registered.ID, false)
				require.NoError(t, err)

				// Login is refused
				data := `{"login": "nk", "password": "StrongEnoughPassword"}`
				resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "Account is inactive"
					}`, body)

				// Already issued access token stops working too
				req, err := http.NewRequest(http.MethodGet, srvURL+MeURL, nil)
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+pair.Access.Value)
				resp, err = http.DefaultClient.Do(req)
				require.NoError(t, err)
				body = readBody(t, resp)

				require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
			})
		})

		t.Run("register existed user fails", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.UserService.Register(t.Context(), "nk", "", "StrongEnoughPassword")
				require.NoError(t, err)

				data := `{"login": "nk", "password": "StrongEnoughPassword"}`
				resp, err := http.Post(srvURL+RegisterURL, "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "User already exists"
					}`, body)
			})
		})
	})
}
