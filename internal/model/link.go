package model

import "time"

// Link - полная запись в хранилище. Содержит manage code и никогда не
// отдается наружу напрямую.
type Link struct {
	ID          int64
	ShortCode   string
	ManageCode  string
	OriginalURL string
	CreatedAt   time.Time
}

// View возвращает публичное представление записи
func (l *Link) View() LinkView {
	return LinkView{
		ID:          l.ID,
		ShortCode:   l.ShortCode,
		OriginalURL: l.OriginalURL,
		CreatedAt:   l.CreatedAt,
	}
}

// LinkView - публичное представление ссылки, без manage code
type LinkView struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

// CreateLinkResponse - единственное место, где manage code отдается клиенту
type CreateLinkResponse struct {
	ShortURL   string `json:"short_url"`
	ManageCode string `json:"manage_code"`
}

type UpdateLinkRequest struct {
	ShortCode string `json:"short_code" binding:"required"`
	NewURL    string `json:"new_url" binding:"required"`
}

type UpdateResult struct {
	Changed bool
}

const (
	MessageUpdated   = "Update successful"
	MessageUnchanged = "URL was already the provided value."
)

func (r UpdateResult) Message() string {
	if r.Changed {
		return MessageUpdated
	}
	return MessageUnchanged
}

type UpdateLinkResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
