package domain

// PaginatedResult is one page of the /laptops/search response.
type PaginatedResult struct {
	Data      []Laptop `json:"data"`
	Total     int      `json:"total"`
	Page      int      `json:"page"`
	Limit     int      `json:"limit"`
	PageCount int      `json:"pageCount"`
}

// ComputePageCount returns ceil(total/limit), or 0 when limit is not positive.
func ComputePageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Normalize fills PageCount when the service omitted it and replaces a nil Data.
func (r *PaginatedResult) Normalize() {
	if r.Data == nil {
		r.Data = []Laptop{}
	}
	if r.Total < 0 {
		r.Total = 0
	}
	if r.PageCount == 0 {
		r.PageCount = ComputePageCount(r.Total, r.Limit)
	}
}
