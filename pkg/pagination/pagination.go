package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
)

const (
	MaxLimit = 500

	TotalCountHeader = "X-Total-Count"
)

// Params holds the optional limit/offset of a list request. A zero Limit
// means no limit.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads ?limit= and ?offset=. Missing values leave the list
// unbounded; malformed or negative values are a BadRequest.
func FromContext(c echo.Context) (Params, error) {
	var p Params
	var err error
	if p.Limit, err = intParam(c, "limit", 0); err != nil {
		return Params{}, err
	}
	if p.Offset, err = intParam(c, "offset", 0); err != nil {
		return Params{}, err
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p, nil
}

// Limit parses a required-positive limit parameter with a default and a
// ceiling, as used by "most recent N" endpoints.
func Limit(c echo.Context, name string, def, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.BadRequest("%s must be a positive integer", name)
	}
	if n > max {
		n = max
	}
	return n, nil
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.BadRequest("%s must be a non-negative integer", name)
	}
	return n, nil
}

// SQL returns the LIMIT/OFFSET clause, empty when unbounded.
func (p Params) SQL() string {
	switch {
	case p.Limit > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit, p.Offset)
	case p.Offset > 0:
		return fmt.Sprintf("OFFSET %d", p.Offset)
	default:
		return ""
	}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Limit > 0 && p.Offset+p.Limit < total
}

func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset never goes below zero.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Link builds an RFC 8288 Link header value for basePath, or "" when the
// page has no neighbours.
func (p Params) Link(basePath string, total int) string {
	var link string
	add := func(rel string, offset int) {
		if link != "" {
			link += ", "
		}
		link += fmt.Sprintf(`<%s?limit=%d&offset=%d>; rel="%s"`, basePath, p.Limit, offset, rel)
	}
	if p.HasNext(total) {
		add("next", p.NextOffset())
	}
	if p.HasPrevious() && p.Limit > 0 {
		add("prev", p.PreviousOffset())
	}
	return link
}

// Write sends items as a plain JSON array with the total count and page
// links in headers.
func Write(c echo.Context, p Params, items any, total int) error {
	h := c.Response().Header()
	h.Set(TotalCountHeader, strconv.Itoa(total))
	if link := p.Link(c.Request().URL.Path, total); link != "" {
		h.Set("Link", link)
	}
	return c.JSON(http.StatusOK, items)
}
