package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"github.com/vadimbarashkov/link-shortener/pkg/response"
)

type linkUseCase interface {
	CreateLink(ctx context.Context, originalURL, customCode string) (*entity.Link, error)
	ListLinks(ctx context.Context) ([]*entity.Link, error)
	GetLink(ctx context.Context, shortCode string) (*entity.Link, error)
	DeleteLink(ctx context.Context, shortCode string) error
	ResolveShortCode(ctx context.Context, shortCode string) (*entity.Link, error)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.HealthyResponse)
}

type linkHandler struct {
	useCase linkUseCase
	metrics *Metrics
}

func newLinkHandler(useCase linkUseCase, metrics *Metrics) *linkHandler {
	return &linkHandler{
		useCase: useCase,
		metrics: metrics,
	}
}

func (h *linkHandler) serveMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.handler().ServeHTTP(w, r)
}

func (h *linkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.linkHandler.createLink"

	var req createLinkRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		// An empty body carries no original_url.
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidURLResponse)
			return
		}

		// A well-formed body whose field has the wrong JSON type is an invalid value of that field.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			switch typeErr.Field {
			case "original_url":
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
				return
			case "custom_code":
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidShortCodeResponse)
				return
			}
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidRequestBodyResponse)
		return
	}

	link, err := h.useCase.CreateLink(r.Context(), req.OriginalURL, req.CustomCode)
	if err != nil {
		renderError(w, r, op, req.CustomCode, err)
		return
	}

	h.metrics.created.Inc()

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.linkHandler.listLinks"

	links, err := h.useCase.ListLinks(r.Context())
	if err != nil {
		renderError(w, r, op, "", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkListResponse(links))
}

func (h *linkHandler) getLink(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.linkHandler.getLink"

	shortCode := chi.URLParam(r, "shortCode")

	link, err := h.useCase.GetLink(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, op, shortCode, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) deleteLink(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.linkHandler.deleteLink"

	shortCode := chi.URLParam(r, "shortCode")

	if err := h.useCase.DeleteLink(r.Context(), shortCode); err != nil {
		renderError(w, r, op, shortCode, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.LinkDeletedResponse)
}

func (h *linkHandler) redirect(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.linkHandler.redirect"

	shortCode := chi.URLParam(r, "shortCode")
	httplog.LogEntrySetField(r.Context(), "short_code", slog.StringValue(shortCode))

	link, err := h.useCase.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			h.metrics.redirects.WithLabelValues(redirectNotFound).Inc()
		} else {
			h.metrics.redirects.WithLabelValues(redirectError).Inc()
		}

		renderError(w, r, op, shortCode, err)
		return
	}

	h.metrics.redirects.WithLabelValues(redirectFound).Inc()

	http.Redirect(w, r, link.OriginalURL, http.StatusFound)
}

// renderError maps domain errors to their HTTP status and body. Anything
// unrecognized is logged on the request entry and answered with an opaque 500.
func renderError(w http.ResponseWriter, r *http.Request, op, shortCode string, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidURL):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidURLResponse)
	case errors.Is(err, entity.ErrInvalidShortCode):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidShortCodeResponse)
	case errors.Is(err, entity.ErrShortCodeExists):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.ShortCodeExistsResponse)
	case errors.Is(err, entity.ErrLinkNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.LinkNotFoundResponse)
	default:
		httplog.LogEntrySetFields(r.Context(), map[string]any{
			"op":         op,
			"short_code": shortCode,
			"err":        err.Error(),
		})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}
