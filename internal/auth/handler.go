package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Cookie  CookieConfig
}

func NewHandler(svc ServiceAPI, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = "filehub_session"
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
		Cookie:      cookie,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
			h.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			if appErr, ok := internal.IsAppError(err); ok {
				h.WriteError(w, appErr.StatusCode, appErr.GetDetailedMessage())
				return
			}
			h.Logger.Error("Register: service error", "error", err)
			h.WriteError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, RegisterResponseV1{Message: "Registration successful", User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		var vErr ValidationError
		switch {
		case errors.As(err, &vErr):
			h.WriteError(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, ErrInvalidCredentials):
			h.WriteError(w, http.StatusUnauthorized, "invalid username or password")
		case errors.Is(err, ErrUserInactive):
			h.WriteError(w, http.StatusUnauthorized, "user is inactive")
		default:
			h.Logger.Error("Login: service error", "error", err)
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	h.WriteJSON(w, http.StatusOK, session.ToV1())
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	h.Service.Logout(r.Context(), user)

	h.clearSessionCookie(w)
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.WriteJSON(w, http.StatusOK, user)
}

// AuthMiddleware rejects requests without a valid session.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.resolveUser(r)
		if err != nil {
			h.Logger.Debug("auth middleware: rejected", "error", err, "path", r.URL.Path)
			h.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, h.withUser(r, user))
	})
}

// OptionalAuth loads the user when a valid session is present and passes the
// request through either way.
func (h *Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, err := h.resolveUser(r); err == nil {
			r = h.withUser(r, user)
		}
		next.ServeHTTP(w, r)
	})
}

// Identify reads the session token without loading the user. The access log
// middleware uses it because it wraps the auth middleware.
func (h *Handler) Identify(r *http.Request) (int64, bool) {
	token := transport.SessionToken(r, h.Cookie.Name)
	if token == "" {
		return 0, false
	}
	claims, err := h.Service.ValidateToken(token)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

func (h *Handler) resolveUser(r *http.Request) (*User, error) {
	token := transport.SessionToken(r, h.Cookie.Name)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := h.Service.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	return h.Service.GetUser(r.Context(), claims.UserID)
}

func (h *Handler) withUser(r *http.Request, user *User) *http.Request {
	ctx := ContextWithUser(r.Context(), user)
	ctx = internal.ContextWithUserID(ctx, user.ID)
	ctx = logger.With(ctx, "user_id", user.ID)
	return r.WithContext(ctx)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
