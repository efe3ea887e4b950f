package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shortloop-dev/shortloop/internal/config"
	"github.com/shortloop-dev/shortloop/internal/constants"
	"github.com/shortloop-dev/shortloop/internal/infrastructure/logger"
	appvalidation "github.com/shortloop-dev/shortloop/internal/infrastructure/validation"
	"github.com/shortloop-dev/shortloop/internal/shortlink"
	"github.com/shortloop-dev/shortloop/internal/transport/http/middleware"
	"github.com/shortloop-dev/shortloop/pkg/httputils"
	"go.uber.org/zap"
)

type LinksHandler struct {
	cfg       *config.Config
	svc       *shortlink.Service
	publisher shortlink.ClickPublisher

	publishTimeout time.Duration
}

// NewLinksHandler wires the service and the optional click publisher; pass a
// nil publisher to skip event emission.
func NewLinksHandler(cfg *config.Config, svc *shortlink.Service, publisher shortlink.ClickPublisher) *LinksHandler {
	return &LinksHandler{
		cfg:            cfg,
		svc:            svc,
		publisher:      publisher,
		publishTimeout: 2 * time.Second,
	}
}

type createLinkRequest struct {
	URL        string `json:"url" validate:"required,notblank,http_url"`
	Password   string `json:"password,omitempty"`
	TTLSeconds int64  `json:"ttlSeconds,omitempty" validate:"omitempty,gt=0"`
}

type createLinkResponse struct {
	Code              string `json:"short_code"`
	ShortURL          string `json:"short_url"`
	OriginalURL       string `json:"original_url"`
	PasswordProtected bool   `json:"password_protected"`
	CreatedAt         int64  `json:"created_at"`
	ExpiryTime        int64  `json:"expiry_time"`
}

func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		apiErr := constants.ErrInvalidRequestBody
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, e := range validationErrs {
				if e.Field() == "url" {
					apiErr = constants.ErrInvalidURL
					break
				}
				if e.Field() == "ttlSeconds" {
					apiErr = apiErr.WithMessage("ttlSeconds must be positive")
					break
				}
			}
		}
		httputils.WriteAPIError(w, r, apiErr)
		return
	}

	link, err := h.svc.Create(r.Context(), shortlink.CreateInput{
		URL:      req.URL,
		Password: req.Password,
		TTL:      time.Duration(req.TTLSeconds) * time.Second,
		UserID:   r.Header.Get(middleware.UserIDHeader),
	})
	if err != nil {
		switch {
		case errors.Is(err, shortlink.ErrInvalidURL):
			httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
		case errors.Is(err, shortlink.ErrCodeExhausted):
			logger.Error("short code space exhausted", zap.Error(err))
			httputils.WriteAPIError(w, r, constants.ErrCodesExhausted)
		default:
			logger.Error("failed to create link", zap.Error(err))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkCreated, createLinkResponse{
		Code:              link.Code,
		ShortURL:          shortURL(h.cfg.Shortener.BaseURL, link.Code),
		OriginalURL:       link.OriginalURL,
		PasswordProtected: link.Protected(),
		CreatedAt:         link.CreatedAt.UTC().Unix(),
		ExpiryTime:        link.ExpiresAt.UTC().Unix(),
	})
}

func (h *LinksHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	password := r.URL.Query().Get("password")

	link, err := h.svc.Resolve(r.Context(), code, password)
	if err != nil {
		switch {
		case errors.Is(err, shortlink.ErrNotFound):
			httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
		case errors.Is(err, shortlink.ErrExpired):
			httputils.WriteAPIError(w, r, constants.ErrLinkExpired)
		case errors.Is(err, shortlink.ErrPasswordRequired):
			h.renderUnlockForm(w, code)
		case errors.Is(err, shortlink.ErrWrongPassword):
			httputils.WriteAPIError(w, r, constants.ErrWrongPassword)
		default:
			logger.Error("failed to resolve code", zap.Error(err), zap.String("code", code))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	if h.publisher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.publishTimeout)
			defer cancel()
			if err := h.publisher.PublishClick(ctx, link.Code, time.Now()); err != nil {
				logger.Warn("failed to publish click event", zap.Error(err), zap.String("code", link.Code))
			}
		}()
	}

	http.Redirect(w, r, link.OriginalURL, h.cfg.Shortener.RedirectStatus)
}

func (h *LinksHandler) Info(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	info, err := h.svc.Info(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, shortlink.ErrNotFound):
			httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
		default:
			logger.Error("failed to fetch link info", zap.Error(err), zap.String("code", code))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	httputils.RespondJSON(w, http.StatusOK, info)
}

type statsResponse struct {
	Code  string                 `json:"short_code"`
	From  string                 `json:"from"`
	To    string                 `json:"to"`
	Daily []shortlink.DailyCount `json:"daily"`
}

func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	from, err := time.Parse(time.DateOnly, r.URL.Query().Get("from"))
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("invalid from (YYYY-MM-DD)"))
		return
	}
	to, err := time.Parse(time.DateOnly, r.URL.Query().Get("to"))
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("invalid to (YYYY-MM-DD)"))
		return
	}

	daily, err := h.svc.DailyStats(r.Context(), code, from, to)
	if err != nil {
		switch {
		case errors.Is(err, shortlink.ErrNotFound):
			httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
		case errors.Is(err, shortlink.ErrInvalidRange):
			httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("from must be <= to"))
		default:
			logger.Error("failed to fetch stats", zap.Error(err), zap.String("code", code))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessStatsFound, statsResponse{
		Code:  code,
		From:  from.Format(time.DateOnly),
		To:    to.Format(time.DateOnly),
		Daily: daily,
	})
}

var unlockFormTmpl = template.Must(template.New("unlock").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>Password Required</title>
</head>
<body>
	<main style="max-width:24rem;margin:4rem auto;font-family:sans-serif">
		<h1>Protected link</h1>
		<p>This link is password protected. Enter the password to continue.</p>
		<form method="GET" action="/{{.Code}}">
			<input type="password" name="password" placeholder="Password" required />
			<button type="submit">Unlock</button>
		</form>
	</main>
</body>
</html>
`))

// renderUnlockForm serves the password challenge. The form re-submits the
// same path with ?password=, so resolution retries with a credential.
func (h *LinksHandler) renderUnlockForm(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := unlockFormTmpl.Execute(w, struct{ Code string }{Code: code}); err != nil {
		logger.Error("failed to render unlock form", zap.Error(err))
	}
}

func shortURL(base, code string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), code)
}
