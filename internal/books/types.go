package books

// Book is one normalized record as consumed by the presentation layer.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
	Description   string   `json:"description"`
	Authors       []string `json:"authors"`
	Rating        *float64 `json:"rating,omitempty"`
	RatingsCount  *int     `json:"ratingsCount,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	PageCount     *int     `json:"pageCount,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// Clone returns a deep copy of the record.
func (b Book) Clone() Book {
	dup := b
	dup.Authors = append([]string{}, b.Authors...)
	if b.Categories != nil {
		dup.Categories = append([]string{}, b.Categories...)
	}
	if b.Rating != nil {
		v := *b.Rating
		dup.Rating = &v
	}
	if b.RatingsCount != nil {
		v := *b.RatingsCount
		dup.RatingsCount = &v
	}
	if b.PageCount != nil {
		v := *b.PageCount
		dup.PageCount = &v
	}
	return dup
}

// Merge fills fields of b from richer, keeping b's identity. Values already
// present in richer win; absent ones leave b untouched.
func (b Book) Merge(richer Book) Book {
	out := b.Clone()
	if richer.Title != "" && richer.Title != defaultTitle {
		out.Title = richer.Title
	}
	if richer.ThumbnailURL != "" {
		out.ThumbnailURL = richer.ThumbnailURL
	}
	if richer.Description != "" && richer.Description != defaultDescription {
		out.Description = richer.Description
	}
	if len(richer.Authors) > 0 {
		out.Authors = append([]string{}, richer.Authors...)
	}
	if richer.Rating != nil {
		v := *richer.Rating
		out.Rating = &v
	}
	if richer.RatingsCount != nil {
		v := *richer.RatingsCount
		out.RatingsCount = &v
	}
	if richer.PublishedDate != "" {
		out.PublishedDate = richer.PublishedDate
	}
	if richer.PageCount != nil {
		v := *richer.PageCount
		out.PageCount = &v
	}
	if len(richer.Categories) > 0 {
		out.Categories = append([]string{}, richer.Categories...)
	}
	return out
}

// CloneAll copies a result list so callers can't alias each other's slices.
func CloneAll(list []Book) []Book {
	if list == nil {
		return nil
	}
	dup := make([]Book, len(list))
	for i, b := range list {
		dup[i] = b.Clone()
	}
	return dup
}

// searchResponse mirrors GET /volumes.
type searchResponse struct {
	Items []volumeItem `json:"items"`
}

// volumeItem mirrors one entry of items[] and the GET /volumes/{id} payload.
type volumeItem struct {
	ID         string      `json:"id"`
	VolumeInfo *volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         *string     `json:"title"`
	Description   *string     `json:"description"`
	Authors       []string    `json:"authors"`
	ImageLinks    *imageLinks `json:"imageLinks"`
	AverageRating *float64    `json:"averageRating"`
	RatingsCount  *int        `json:"ratingsCount"`
	PublishedDate *string     `json:"publishedDate"`
	PageCount     *int        `json:"pageCount"`
	Categories    []string    `json:"categories"`
}

type imageLinks struct {
	Thumbnail *string `json:"thumbnail"`
}
