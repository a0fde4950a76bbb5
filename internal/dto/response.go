package dto

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateTimeLayout is the wire format for timestamps.
const DateTimeLayout = "2006-01-02T15:04:05Z"

// PaginationRequest carries common paging query parameters.
type PaginationRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// GetPage returns the page number, defaulting to 1.
func (p *PaginationRequest) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// GetPageSize returns the page size clamped to [1, 100], defaulting to 10.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// GetOffset returns the row offset for the current page.
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
