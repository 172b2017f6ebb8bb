package usecase

import (
	"context"
	"fmt"

	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResolveShortCode looks up the link behind shortCode and counts the click in
// the same store call. The call is detached from ctx cancellation, so a client
// that hangs up early is still counted exactly once.
func (uc *LinkUseCase) ResolveShortCode(ctx context.Context, shortCode string) (link *entity.Link, err error) {
	const op = "usecase.LinkUseCase.ResolveShortCode"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("link.short_code", shortCode),
	))
	defer func() {
		endSpan(span, link, err)
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.clickTimeout)
	defer cancel()

	link, err = uc.linkRepo.RecordClick(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return link, nil
}
