package domain

// Page is the backend's paged list payload. Page numbers are zero-based.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// NewPage slices items for the requested page.
func NewPage[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	total := len(items)
	pages := (total + size - 1) / size
	start := page * size
	end := start + size
	if end > total {
		end = total
	}
	content := []T{}
	if start < total {
		content = append(content, items[start:end]...)
	}
	return Page[T]{
		Content:       content,
		TotalElements: int64(total),
		TotalPages:    pages,
		Number:        page,
		Size:          size,
	}
}
