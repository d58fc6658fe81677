package pagination

import "laptops/facetsync/internal/domain"

// Controller holds the page number and page size of a search session.
// It does not clamp against the page count; out-of-range pages go to the
// catalog service as-is.
type Controller struct {
	page         int
	limit        int
	defaultLimit int
}

func NewController(defaultLimit int) *Controller {
	if defaultLimit < 1 {
		defaultLimit = domain.DefaultLimit
	}
	return &Controller{
		page:         domain.DefaultPage,
		limit:        defaultLimit,
		defaultLimit: defaultLimit,
	}
}

func (c *Controller) Page() int {
	return c.page
}

func (c *Controller) Limit() int {
	return c.limit
}

func (c *Controller) DefaultLimit() int {
	return c.defaultLimit
}

// SetPage moves to page, treating anything below 1 as 1.
func (c *Controller) SetPage(page int) {
	if page < domain.DefaultPage {
		page = domain.DefaultPage
	}
	c.page = page
}

// SetLimit changes the page size and returns to the first page.
func (c *Controller) SetLimit(limit int) {
	if limit < 1 {
		limit = c.defaultLimit
	}
	c.limit = limit
	c.page = domain.DefaultPage
}

// Restore loads page and limit decoded from the URL.
func (c *Controller) Restore(page, limit int) {
	c.SetPage(page)
	if limit < 1 {
		limit = c.defaultLimit
	}
	c.limit = limit
}

// FirstPage returns to page 1 keeping the page size.
func (c *Controller) FirstPage() {
	c.page = domain.DefaultPage
}

func (c *Controller) Offset() int {
	return (c.page - 1) * c.limit
}

func (c *Controller) PageCount(total int) int {
	return domain.ComputePageCount(total, c.limit)
}

func (c *Controller) HasNext(total int) bool {
	return c.page < c.PageCount(total)
}

func (c *Controller) HasPrev() bool {
	return c.page > domain.DefaultPage
}
