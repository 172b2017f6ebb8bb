// Package usecase holds the business rules of the link shortener: input
// validation, short code allocation and the redirect click path.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"github.com/vadimbarashkov/link-shortener/pkg/shortcode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	defaultMaxRetries   = 5
	defaultQueryTimeout = 5 * time.Second
	defaultClickTimeout = 5 * time.Second
)

const (
	originalURLRules = "required,url"
	shortCodeRules   = "alphanum,min=6,max=8"
)

// LinkRepository is the durable store of links. Implementations must enforce
// short code uniqueness themselves and count clicks atomically.
type LinkRepository interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.Link, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.Link, error)
	RetrieveAll(ctx context.Context) ([]*entity.Link, error)
	Remove(ctx context.Context, shortCode string) (*entity.Link, error)
	RecordClick(ctx context.Context, shortCode string) (*entity.Link, error)
}

type Option func(*LinkUseCase)

// WithMaxRetries sets how many generated codes are tried before giving up.
func WithMaxRetries(n int) Option {
	return func(uc *LinkUseCase) {
		if n > 0 {
			uc.maxRetries = n
		}
	}
}

// WithQueryTimeout bounds every store call made on behalf of a request.
func WithQueryTimeout(d time.Duration) Option {
	return func(uc *LinkUseCase) {
		if d > 0 {
			uc.queryTimeout = d
		}
	}
}

// WithClickTimeout bounds the click counting store call, which outlives the request.
func WithClickTimeout(d time.Duration) Option {
	return func(uc *LinkUseCase) {
		if d > 0 {
			uc.clickTimeout = d
		}
	}
}

// WithCodeGenerator replaces the random short code generator.
func WithCodeGenerator(generate func() string) Option {
	return func(uc *LinkUseCase) {
		if generate != nil {
			uc.generate = generate
		}
	}
}

// WithReservedCodes marks codes that are taken by something other than a link,
// such as exact routes sharing the redirect path space.
func WithReservedCodes(codes ...string) Option {
	return func(uc *LinkUseCase) {
		for _, code := range codes {
			uc.reserved[code] = struct{}{}
		}
	}
}

// WithTracer sets the tracer spans are started with.
func WithTracer(tracer trace.Tracer) Option {
	return func(uc *LinkUseCase) {
		if tracer != nil {
			uc.tracer = tracer
		}
	}
}

type LinkUseCase struct {
	linkRepo     LinkRepository
	validate     *validator.Validate
	tracer       trace.Tracer
	generate     func() string
	reserved     map[string]struct{}
	maxRetries   int
	queryTimeout time.Duration
	clickTimeout time.Duration
}

func New(linkRepo LinkRepository, opts ...Option) *LinkUseCase {
	uc := &LinkUseCase{
		linkRepo:     linkRepo,
		validate:     validator.New(),
		tracer:       noop.NewTracerProvider().Tracer(""),
		generate:     shortcode.Generate,
		reserved:     make(map[string]struct{}),
		maxRetries:   defaultMaxRetries,
		queryTimeout: defaultQueryTimeout,
		clickTimeout: defaultClickTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// CreateLink stores originalURL under customCode, or under a generated code when
// customCode is empty. A taken custom code fails with entity.ErrShortCodeExists
// right away; a taken generated code is replaced by a fresh one up to maxRetries times.
func (uc *LinkUseCase) CreateLink(ctx context.Context, originalURL, customCode string) (link *entity.Link, err error) {
	const op = "usecase.LinkUseCase.CreateLink"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Bool("link.custom_code", customCode != ""),
	))
	defer func() {
		endSpan(span, link, err)
	}()

	if err := uc.validate.Var(originalURL, originalURLRules); err != nil {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidURL)
	}

	if customCode != "" {
		if err := uc.validate.Var(customCode, shortCodeRules); err != nil {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidShortCode)
		}

		if uc.isReserved(customCode) {
			return nil, fmt.Errorf("%s: custom code %q is reserved: %w", op, customCode, entity.ErrShortCodeExists)
		}

		link, err = uc.save(ctx, customCode, originalURL)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to save link with custom code: %w", op, err)
		}

		return link, nil
	}

	for i := 0; i < uc.maxRetries; i++ {
		shortCode := uc.generate()
		if uc.isReserved(shortCode) {
			continue
		}

		link, err = uc.save(ctx, shortCode, originalURL)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %d generated codes taken: %w", op, uc.maxRetries, entity.ErrShortCodeExists)
}

func (uc *LinkUseCase) isReserved(shortCode string) bool {
	_, ok := uc.reserved[shortCode]
	return ok
}

// endSpan records the outcome of a link operation on span and ends it.
func endSpan(span trace.Span, link *entity.Link, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if link != nil {
		span.SetAttributes(attribute.String("link.short_code", link.ShortCode))
	}

	span.End()
}

func (uc *LinkUseCase) save(ctx context.Context, shortCode, originalURL string) (*entity.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.queryTimeout)
	defer cancel()

	return uc.linkRepo.Save(ctx, shortCode, originalURL)
}

func (uc *LinkUseCase) ListLinks(ctx context.Context) ([]*entity.Link, error) {
	const op = "usecase.LinkUseCase.ListLinks"

	ctx, cancel := context.WithTimeout(ctx, uc.queryTimeout)
	defer cancel()

	links, err := uc.linkRepo.RetrieveAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

func (uc *LinkUseCase) GetLink(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.GetLink"

	ctx, cancel := context.WithTimeout(ctx, uc.queryTimeout)
	defer cancel()

	link, err := uc.linkRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	return link, nil
}

func (uc *LinkUseCase) DeleteLink(ctx context.Context, shortCode string) error {
	const op = "usecase.LinkUseCase.DeleteLink"

	ctx, cancel := context.WithTimeout(ctx, uc.queryTimeout)
	defer cancel()

	if _, err := uc.linkRepo.Remove(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}
