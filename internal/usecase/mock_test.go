package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

type mockLinkRepository struct {
	mock.Mock
}

func (r *mockLinkRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.Link, error) {
	args := r.Called(ctx, shortCode, originalURL)
	if fn, ok := args.Get(0).(func(context.Context, string, string) (*entity.Link, error)); ok {
		return fn(ctx, shortCode, originalURL)
	}

	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *mockLinkRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *mockLinkRepository) RetrieveAll(ctx context.Context) ([]*entity.Link, error) {
	args := r.Called(ctx)
	links, _ := args.Get(0).([]*entity.Link)
	return links, args.Error(1)
}

func (r *mockLinkRepository) Remove(ctx context.Context, shortCode string) (*entity.Link, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *mockLinkRepository) RecordClick(ctx context.Context, shortCode string) (*entity.Link, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}
