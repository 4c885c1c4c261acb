package util

// DefaultPageSize bounds unpaginated listing endpoints.
const DefaultPageSize = 20

const maxPageSize = 100

// Page converts 1-based page/size query values into an offset and limit,
// clamping size to sane bounds.
func Page(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}
