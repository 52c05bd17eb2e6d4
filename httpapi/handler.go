package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	tokenAuth "github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/middleware"
)

const maxBodyBytes = 64 << 10

// Engine is the subset of [tokenAuth.Engine] the transport calls.
type Engine interface {
	middleware.Validator
	LoginWithResult(ctx context.Context, identifier, password string) (*tokenAuth.TokenResult, error)
	Register(ctx context.Context, req tokenAuth.RegisterRequest) (*tokenAuth.TokenResult, error)
	ReissueWithResult(ctx context.Context, accessToken string) (*tokenAuth.TokenResult, error)
	SignOut(ctx context.Context, accessToken string) error
	Ping(ctx context.Context) (time.Duration, error)
	SocialSignIn(ctx context.Context, email, providerToken string) (*tokenAuth.TokenResult, error)
	SocialRegister(ctx context.Context, req tokenAuth.SocialRegisterRequest, providerToken string) (*tokenAuth.TokenResult, error)
}

// Options tunes the transport.
type Options struct {
	// InsecureCookies drops the Secure flag. Only for plain-HTTP development.
	InsecureCookies bool
	// TrustProxyHeaders takes the client IP from X-Forwarded-For.
	TrustProxyHeaders bool
	// Logger receives request failures. Defaults to slog.Default().
	Logger *slog.Logger
}

type handler struct {
	engine Engine
	opts   Options
	logger *slog.Logger
}

type signInBody struct {
	Email    string `json:"userEmail" validate:"required"`
	Password string `json:"userPassword" validate:"required"`
}

func (b *signInBody) trim() { b.Email = strings.TrimSpace(b.Email) }

type signUpBody struct {
	Name     string `json:"userName" validate:"required,min=2,max=20"`
	Email    string `json:"userEmail" validate:"required,email"`
	Password string `json:"userPassword" validate:"required,min=6,max=20,password"`
}

func (b *signUpBody) trim() {
	b.Name = strings.TrimSpace(b.Name)
	b.Email = strings.TrimSpace(b.Email)
}

// socialSignInBody travels with the provider access token as the bearer.
type socialSignInBody struct {
	Email string `json:"userEmail" validate:"required,email"`
}

func (b *socialSignInBody) trim() { b.Email = strings.TrimSpace(b.Email) }

type socialSignUpBody struct {
	Name  string `json:"userName" validate:"required,min=2,max=20"`
	Email string `json:"userEmail" validate:"required,email"`
}

func (b *socialSignUpBody) trim() {
	b.Name = strings.TrimSpace(b.Name)
	b.Email = strings.TrimSpace(b.Email)
}

type meResponse struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// NewRouter mounts every route on a fresh gorilla/mux router.
func NewRouter(engine Engine, opts Options) *mux.Router {
	router := mux.NewRouter()
	Register(router, engine, opts)
	return router
}

// Register mounts the routes on an existing router.
func Register(router *mux.Router, engine Engine, opts Options) {
	h := &handler{engine: engine, opts: opts, logger: opts.Logger}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	auth := router.PathPrefix("/auth").Subrouter()
	auth.Use(h.clientIP)
	auth.HandleFunc("/signIn", h.signIn).Methods(http.MethodPost)
	auth.HandleFunc("/signUp", h.signUp).Methods(http.MethodPost)
	auth.HandleFunc("/social/signIn", h.socialSignIn).Methods(http.MethodPost)
	auth.HandleFunc("/social/signUp", h.socialSignUp).Methods(http.MethodPost)
	auth.HandleFunc("/reissue", h.reissue).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	auth.Handle("/me", middleware.Guard(engine)(http.HandlerFunc(h.me))).Methods(http.MethodGet)

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	var body signInBody
	if !bind(w, r, &body) {
		return
	}

	res, err := h.engine.LoginWithResult(r.Context(), body.Email, body.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setAccessCookie(w, res)
	w.WriteHeader(http.StatusOK)
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	var body signUpBody
	if !bind(w, r, &body) {
		return
	}

	res, err := h.engine.Register(r.Context(), tokenAuth.RegisterRequest{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setAccessCookie(w, res)
	w.WriteHeader(http.StatusCreated)
}

func (h *handler) socialSignIn(w http.ResponseWriter, r *http.Request) {
	providerToken, ok := middleware.BearerToken(r)
	if !ok {
		writeStatus(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body socialSignInBody
	if !bind(w, r, &body) {
		return
	}

	res, err := h.engine.SocialSignIn(r.Context(), body.Email, providerToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setAccessCookie(w, res)
	w.WriteHeader(http.StatusOK)
}

func (h *handler) socialSignUp(w http.ResponseWriter, r *http.Request) {
	providerToken, ok := middleware.BearerToken(r)
	if !ok {
		writeStatus(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body socialSignUpBody
	if !bind(w, r, &body) {
		return
	}

	res, err := h.engine.SocialRegister(r.Context(), tokenAuth.SocialRegisterRequest{
		Email: body.Email,
		Name:  body.Name,
	}, providerToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setAccessCookie(w, res)
	w.WriteHeader(http.StatusCreated)
}

func (h *handler) reissue(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.CookieToken(r)
	if !ok {
		writeStatus(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	res, err := h.engine.ReissueWithResult(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setAccessCookie(w, res)
	w.WriteHeader(http.StatusOK)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.CookieToken(r)
	if !ok {
		writeStatus(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.clearAccessCookie(w)
	if err := h.engine.SignOut(r.Context(), token); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "logged out"})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Subject: res.Subject, ExpiresAt: res.ExpiresAt})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if _, err := h.engine.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		writeStatus(w, http.StatusServiceUnavailable, "DOWN")
		return
	}
	writeStatus(w, http.StatusOK, "UP")
}

func (h *handler) setAccessCookie(w http.ResponseWriter, res *tokenAuth.TokenResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    res.AccessToken,
		Path:     "/",
		MaxAge:   int(res.TTL / time.Second),
		HttpOnly: true,
		Secure:   !h.opts.InsecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *handler) clearAccessCookie(w http.ResponseWriter) {
	// MaxAge < 0 is emitted as Max-Age=0.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.opts.InsecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *handler) clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := remoteIP(r, h.opts.TrustProxyHeaders)
		if ip != "" {
			r = r.WithContext(tokenAuth.WithClientIP(r.Context(), ip))
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, statusResponse{Status: msg})
}
