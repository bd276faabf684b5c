package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/impactlink/impactlink/internal/app/models/dto"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultPage     = 1
)

// Page is a 1-based page request
type Page struct {
	Number int
	Size   int
}

// ParsePage reads ?page= and ?size=. Missing, malformed or out of range
// values fall back to the defaults.
func ParsePage(c *gin.Context) Page {
	return NewPage(queryInt(c, "page", DefaultPage), queryInt(c, "size", DefaultPageSize))
}

// NewPage clamps number and size into range
func NewPage(number, size int) Page {
	if number < 1 {
		number = DefaultPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}

// Offset is the number of rows before this page
func (p Page) Offset() uint64 {
	return uint64((p.Number - 1) * p.Size)
}

// Info describes this page of a result set holding totalItems rows.
// An empty result still reports one page.
func (p Page) Info(totalItems int64) dto.PaginationInfo {
	totalPages := 1
	if totalItems > 0 {
		totalPages = int((totalItems + int64(p.Size) - 1) / int64(p.Size))
	}
	return dto.PaginationInfo{
		CurrentPage: p.Number,
		TotalPages:  totalPages,
		PageSize:    p.Size,
		TotalItems:  totalItems,
	}
}
