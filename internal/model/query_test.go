package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	s, err := ParseSort("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSort, s)

	s, err = ParseSort("fileSize", "desc")
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: SortByFileSize, Direction: Desc}, s)

	_, err = ParseSort("gridFsId", "")
	assert.Error(t, err)

	_, err = ParseSort("fileName", "sideways")
	assert.Error(t, err)
}

func TestPageRequestNormalize(t *testing.T) {
	p, err := PageRequest{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Equal(t, DefaultSort, p.Sort)
	assert.Equal(t, 0, p.Offset())

	p, err = PageRequest{Page: 2, Size: 5}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 10, p.Offset())

	_, err = PageRequest{Page: -1}.Normalize()
	assert.Error(t, err)

	_, err = PageRequest{Size: MaxPageSize + 1}.Normalize()
	assert.Error(t, err)
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2, 3, 4, 5}, 15, PageRequest{Page: 1, Size: 5})

	assert.Equal(t, int64(15), p.TotalElements)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 1, p.Page)

	empty := NewPage[int](nil, 0, PageRequest{Size: 10})
	assert.NotNil(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestDownloadLinkFor(t *testing.T) {
	assert.Equal(t, "/api/v1/files/abc/download", DownloadLinkFor("abc"))
}
