package http

import (
	"time"

	"github.com/samber/lo"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

type createLinkRequest struct {
	OriginalURL string `json:"original_url"`
	CustomCode  string `json:"custom_code,omitempty"`
}

type linkResponse struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	Clicks      int64      `json:"clicks"`
	LastClicked *time.Time `json:"last_clicked"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toLinkResponse(link *entity.Link) linkResponse {
	return linkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		Clicks:      link.Clicks,
		LastClicked: link.LastClicked,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

// toLinkListResponse never returns nil, so an empty store renders as [].
func toLinkListResponse(links []*entity.Link) []linkResponse {
	return lo.Map(links, func(link *entity.Link, _ int) linkResponse {
		return toLinkResponse(link)
	})
}
