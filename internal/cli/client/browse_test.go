package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/tastyfind/internal/pagination"
)

func TestBrowseCmd_Navigation(t *testing.T) {
	fb := newFakeBackend(t)

	out, err := execute(t, "n\nn\np\n3\nq\n", "browse", "--api-url", fb.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"limit=20&page=1",
		"limit=20&page=2",
		"limit=20&page=3",
		"limit=20&page=2",
		"limit=20&page=3",
	}, fb.calls("/restaurants"))
	assert.Contains(t, out, "Page 3")
	assert.Contains(t, out, "Showing 41 - 41")
}

func TestBrowseCmd_PrevOnFirstPage(t *testing.T) {
	fb := newFakeBackend(t)

	out, err := execute(t, "p\nq\n", "browse", "--api-url", fb.URL)
	require.NoError(t, err)

	assert.Contains(t, out, "Already on the first page")
	assert.Len(t, fb.calls("/restaurants"), 1)
}

func TestBrowseCmd_StopsAtEmptyPage(t *testing.T) {
	fb := newFakeBackend(t)

	out, err := execute(t, "4\nn\nq\n", "browse", "--api-url", fb.URL)
	require.NoError(t, err)

	assert.Contains(t, out, "No restaurants found")
	assert.Contains(t, out, "No more pages")
	assert.Len(t, fb.calls("/restaurants"), 2)
}

func TestBrowseCmd_PageSize(t *testing.T) {
	fb := newFakeBackend(t)

	out, err := execute(t, "s 50\ns\ns abc\nq\n", "browse", "--api-url", fb.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{"limit=20&page=1", "limit=50&page=1"}, fb.calls("/restaurants"))
	assert.Contains(t, out, "Page size options: 10, 20, 50, 100")
	assert.Contains(t, out, "page size must be a positive integer")
}

func TestBrowseCmd_EOFEndsSession(t *testing.T) {
	fb := newFakeBackend(t)

	_, err := execute(t, "bogus\n", "browse", "--api-url", fb.URL)
	require.NoError(t, err)
}

func TestRenderPageItems(t *testing.T) {
	items := pagination.Pages(6, 12)

	got := renderPageItems(items, 6)

	assert.Equal(t, "1 … 5 [6] 7 … 12", got)
	assert.True(t, strings.HasPrefix(renderPageItems(pagination.Pages(1, 2), 1), "[1]"))
}
