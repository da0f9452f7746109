package query

import (
	"net/http"
	"net/url"
	"testing"

	"ecopoweratlas/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = Spec{
	Filterable: map[string]Field{
		"iso3":   {Column: "cty.iso3", Fold: true},
		"status": {Column: "hs.status"},
	},
	Searchable:   []string{"hs.name"},
	Sortable:     map[string]string{"name": "hs.name"},
	DefaultOrder: []string{"hs.name ASC"},
}

var testPager = Pager{Default: 50, Max: 200}

func TestParse_Defaults(t *testing.T) {
	p, err := Parse(url.Values{}, testSpec, testPager)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 50, p.PageSize)
	assert.Empty(t, p.Filters)
	assert.Empty(t, p.Ordering)
}

func TestParse_OnlyAllowListedFilters(t *testing.T) {
	values := url.Values{
		"iso3":    {"KEN"},
		"boundry": {"x"}, // unknown params are ignored
		"search":  {" forks "},
	}
	p, err := Parse(values, testSpec, testPager)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"iso3": "KEN"}, p.Filters)
	assert.Equal(t, "forks", p.Search)
}

func TestParse_UnknownOrderingRejected(t *testing.T) {
	values := url.Values{"ordering": {"password"}}
	_, err := Parse(values, testSpec, testPager)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.CodeOf(err))
}

func TestParse_DescendingOrderingAccepted(t *testing.T) {
	values := url.Values{"ordering": {"-name"}}
	p, err := Parse(values, testSpec, testPager)
	require.NoError(t, err)
	assert.Equal(t, "-name", p.Ordering)
}

func TestParse_PageSizeCapped(t *testing.T) {
	values := url.Values{"page_size": {"1000"}}
	p, err := Parse(values, testSpec, testPager)
	require.NoError(t, err)
	assert.Equal(t, 200, p.PageSize)
}

func TestParse_InvalidPage(t *testing.T) {
	for _, bad := range []string{"0", "-1", "abc"} {
		_, err := Parse(url.Values{"page": {bad}}, testSpec, testPager)
		assert.Error(t, err, bad)
	}
}
