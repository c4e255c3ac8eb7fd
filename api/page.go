package api

// Page is the paginated collection shape returned by every search endpoint.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// PageCount derives the number of pages from the server-reported element count. When the server
// only reports totalPages that value is used instead.
func (p Page[T]) PageCount(size int) int {
	if p.TotalElements > 0 && size > 0 {
		return int((p.TotalElements + int64(size) - 1) / int64(size))
	}
	if p.TotalElements == 0 && p.TotalPages == 0 {
		return 0
	}
	return p.TotalPages
}
