package model

import (
	"fmt"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 250
)

// SortField names the file attributes a listing can be ordered by.
type SortField string

const (
	SortByFileName    SortField = "fileName"
	SortByFileSize    SortField = "fileSize"
	SortByUploadDate  SortField = "uploadDate"
	SortByContentType SortField = "contentType"
	SortByVisibility  SortField = "visibility"
)

var sortColumns = map[SortField]string{
	SortByFileName:    "file_name",
	SortByFileSize:    "file_size",
	SortByUploadDate:  "upload_date",
	SortByContentType: "content_type",
	SortByVisibility:  "visibility",
}

// Column returns the database column backing the field.
func (f SortField) Column() (string, bool) {
	c, ok := sortColumns[f]
	return c, ok
}

// Direction is the sort direction of a listing.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

type Sort struct {
	Field     SortField
	Direction Direction
}

// DefaultSort orders by file name, ascending.
var DefaultSort = Sort{Field: SortByFileName, Direction: Asc}

// ParseSort turns request values into a Sort. Empty values fall back to the
// defaults, unknown ones are an error.
func ParseSort(field, direction string) (Sort, error) {
	s := DefaultSort

	if field != "" {
		s.Field = SortField(field)
		if _, ok := s.Field.Column(); !ok {
			return Sort{}, fmt.Errorf("unknown sort field %q", field)
		}
	}

	switch strings.ToUpper(direction) {
	case "":
	case string(Asc):
		s.Direction = Asc
	case string(Desc):
		s.Direction = Desc
	default:
		return Sort{}, fmt.Errorf("unknown sort direction %q", direction)
	}

	return s, nil
}

// PageRequest selects one zero based page of a listing.
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

// Normalize fills in the defaults and rejects values out of range.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Page < 0 {
		return p, fmt.Errorf("page can't be negative")
	}

	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}

	if p.Size > MaxPageSize {
		return p, fmt.Errorf("page size must be at most %d", MaxPageSize)
	}

	if p.Sort.Field == "" {
		p.Sort.Field = DefaultSort.Field
	}

	if p.Sort.Direction == "" {
		p.Sort.Direction = DefaultSort.Direction
	}

	return p, nil
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Filter narrows a listing. Nil and empty fields don't filter. Tag is
// matched against the normalized tag set.
type Filter struct {
	UserID     *string
	Visibility *Visibility
	Tag        string
}

// Page is one slice of a sorted listing plus the size of the whole result.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// NewPage builds a page for the request it answers.
func NewPage[T any](content []T, total int64, req PageRequest) *Page[T] {
	if content == nil {
		content = []T{}
	}

	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	return &Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Page:          req.Page,
		Size:          req.Size,
	}
}
