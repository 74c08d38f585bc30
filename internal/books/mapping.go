package books

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	defaultTitle       = "No title"
	defaultDescription = "No description available"
)

// MapResponse validates and maps a raw /volumes body into records. Items
// without a volumeInfo payload are dropped; an absent items array yields an
// empty, non-nil slice.
func MapResponse(body []byte) ([]Book, error) {
	if err := validateSearchBody(body); err != nil {
		return nil, err
	}
	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return mapItems(payload.Items), nil
}

func mapItems(items []volumeItem) []Book {
	out := make([]Book, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		book, ok := mapItem(item)
		if !ok {
			continue
		}
		if _, dup := seen[book.ID]; dup {
			continue
		}
		seen[book.ID] = struct{}{}
		out = append(out, book)
	}
	return out
}

func mapItem(item volumeItem) (Book, bool) {
	info := item.VolumeInfo
	if info == nil {
		return Book{}, false
	}

	book := Book{
		ID:           item.ID,
		Title:        stringOr(info.Title, defaultTitle),
		ThumbnailURL: secureThumbnail(info.ImageLinks),
		Description:  stringOr(info.Description, defaultDescription),
		Authors:      []string{},
		Rating:       info.AverageRating,
		RatingsCount: info.RatingsCount,
		PageCount:    info.PageCount,
	}
	if len(info.Authors) > 0 {
		book.Authors = append(book.Authors, info.Authors...)
	}
	if info.PublishedDate != nil {
		book.PublishedDate = *info.PublishedDate
	}
	if len(info.Categories) > 0 {
		book.Categories = append([]string{}, info.Categories...)
	}
	return book, true
}

// secureThumbnail upgrades an http:// image link to https:// and maps a
// missing link to "".
func secureThumbnail(links *imageLinks) string {
	if links == nil || links.Thumbnail == nil {
		return ""
	}
	raw := *links.Thumbnail
	if strings.HasPrefix(raw, "http://") {
		return "https://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
