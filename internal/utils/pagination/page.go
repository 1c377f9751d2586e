package pagination

// Params is normalized 1-indexed page state shared by the browse and admin
// list endpoints.
type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps raw query values into a usable page window.
// Page defaults to 1; PageSize falls back to def and is capped at max.
func Normalize(page, pageSize, def, max int) Params {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize > max {
		pageSize = max
	}
	return Params{Page: page, PageSize: pageSize}
}

// Offset converts the page window into a SQL offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages is ceiling(total / pageSize), never less than 1 so empty result
// sets still render a single page.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 {
		return 1
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	return pages
}
