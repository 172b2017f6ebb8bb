package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

type mockLinkUseCase struct {
	mock.Mock
}

func (uc *mockLinkUseCase) CreateLink(ctx context.Context, originalURL, customCode string) (*entity.Link, error) {
	args := uc.Called(ctx, originalURL, customCode)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (uc *mockLinkUseCase) ListLinks(ctx context.Context) ([]*entity.Link, error) {
	args := uc.Called(ctx)
	links, _ := args.Get(0).([]*entity.Link)
	return links, args.Error(1)
}

func (uc *mockLinkUseCase) GetLink(ctx context.Context, shortCode string) (*entity.Link, error) {
	args := uc.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (uc *mockLinkUseCase) DeleteLink(ctx context.Context, shortCode string) error {
	args := uc.Called(ctx, shortCode)
	return args.Error(0)
}

func (uc *mockLinkUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	args := uc.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}
