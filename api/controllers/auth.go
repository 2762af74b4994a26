package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// SessionCookies describes how session tokens are written to the browser.
type SessionCookies struct {
	Session config.SessionConfig
	JWT     config.JWTConfig
}

type userResponse struct {
	User *users.UserDTO `json:"user"`
}

func (c SessionCookies) set(w http.ResponseWriter, result *auth.LoginResponse) {
	http.SetCookie(w, c.cookie(c.Session.CookieName, result.AccessToken, c.JWT.AccessTokenTTL()))
	http.SetCookie(w, c.cookie(c.Session.RefreshCookieName, result.RefreshToken, c.JWT.RefreshTokenTTL()))
}

func (c SessionCookies) clear(w http.ResponseWriter) {
	for _, name := range []string{c.Session.CookieName, c.Session.RefreshCookieName} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}

func (c SessionCookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Session.CookieDomain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// AuthRegister creates the account and signs the new user in.
func AuthRegister(register auth.RegisterService, svc auth.Service, cookies SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if register == nil || svc == nil {
			unavailable(w, r, logg, "auth service")
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := register.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginRequest{Email: user.Email, Password: body.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.set(w, result)
		responses.WriteSuccessStatus(w, http.StatusCreated, userResponse{User: result.User})
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, cookies SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth service")
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.set(w, result)
		responses.WriteSuccess(w, userResponse{User: result.User})
	}
}

// AuthLogout revokes the current session, if any, and clears both cookies.
func AuthLogout(svc auth.Service, cookies SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth service")
			return
		}

		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.clear(w)
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

// AuthRefresh rotates the refresh token bound to the (possibly expired)
// access token and reissues both cookies.
func AuthRefresh(svc auth.Service, cookies SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth service")
			return
		}

		refresh, err := r.Cookie(cookies.Session.RefreshCookieName)
		if err != nil || refresh.Value == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing refresh token"))
			return
		}

		result, err := svc.Refresh(r.Context(), middleware.AccessToken(r, cookies.Session), refresh.Value)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				cookies.clear(w)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.set(w, result)
		responses.WriteSuccess(w, userResponse{User: result.User})
	}
}
