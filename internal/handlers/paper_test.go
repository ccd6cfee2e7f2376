package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/paper"
)

var letterOptions = map[string]string{
	"paper_weight": "67lb",
	"color":        "cream",
	"punches":      "3-hole",
	"corners":      "square",
	"protection":   "none",
}

func TestPaperSizes(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodGet, "/api/paper-sizes", nil)
	require.Equal(t, http.StatusOK, status)
	sizes := decodeData[[]catalog.Size](t, resp)
	require.NotEmpty(t, sizes)
	assert.Equal(t, "8.5x11", sizes[0].ID)

	status, resp = srv.do(t, http.MethodGet, "/api/paper-sizes/default", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "8.5x11", decodeData[catalog.Size](t, resp).ID)

	status, resp = srv.do(t, http.MethodGet, "/api/paper-sizes/minkus", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "minkus", decodeData[catalog.Size](t, resp).ID)

	status, resp = srv.do(t, http.MethodGet, "/api/paper-sizes/a4", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, resp.Success)
	assert.Equal(t, "Paper size 'a4' not found", resp.Message)
}

func TestPaperSizeOptions(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodGet, "/api/paper-sizes/8.5x11/options", nil)
	require.Equal(t, http.StatusOK, status)

	options := decodeData[map[string][]catalog.Option](t, resp)
	for _, category := range catalog.Categories {
		assert.NotEmpty(t, options[string(category)], category)
	}

	status, _ = srv.do(t, http.MethodGet, "/api/paper-sizes/a4/options", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCalculateConfiguration(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodPost, "/api/paper-configurations/calculate", map[string]any{
		"size":    "8.5x11",
		"options": letterOptions,
		"pages":   50,
	})
	require.Equal(t, http.StatusOK, status)

	specs := decodeData[paper.Specifications](t, resp)
	assert.Equal(t, "85X11-67LB-CRE-3H-SQ", specs.SKU)
	require.NotNil(t, specs.TotalPrice)
	assert.Equal(t, 10.00, *specs.TotalPrice)
	require.NotNil(t, specs.TotalWeight)
	assert.Equal(t, 16.18, specs.TotalWeight.Oz)
	require.NotNil(t, specs.TotalThickness)
	assert.Equal(t, 0.45, *specs.TotalThickness)
}

func TestCalculateConfigurationRejects(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{
			name:   "missing option",
			body:   map[string]any{"size": "8.5x11", "options": map[string]string{"color": "white"}},
			status: http.StatusUnprocessableEntity,
			msg:    "The options.paper_weight field is required.",
		},
		{
			name:   "zero pages",
			body:   map[string]any{"size": "8.5x11", "options": letterOptions, "pages": 0},
			status: http.StatusUnprocessableEntity,
			msg:    "The pages field must be at least 1.",
		},
		{
			name:   "unknown size",
			body:   map[string]any{"size": "a4", "options": letterOptions},
			status: http.StatusBadRequest,
			msg:    "paper size 'a4' not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := srv.do(t, http.MethodPost, "/api/paper-configurations/calculate", tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.msg, resp.Message)
		})
	}
}

func TestValidateConfiguration(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodPost, "/api/paper-configurations/validate", map[string]any{
		"size":    "8.5x11",
		"options": map[string]string{"color": "white"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decodeData[paper.Validation](t, resp).Valid)

	status, resp = srv.do(t, http.MethodPost, "/api/paper-configurations/validate", map[string]any{
		"size":    "8.5x11",
		"options": map[string]string{"color": "plaid", "glitter": "yes"},
	})
	require.Equal(t, http.StatusOK, status)
	v := decodeData[paper.Validation](t, resp)
	assert.False(t, v.Valid)
	assert.Len(t, v.Errors, 2)

	status, resp = srv.do(t, http.MethodPost, "/api/paper-configurations/validate", map[string]any{
		"size":    "a4",
		"options": map[string]string{},
	})
	require.Equal(t, http.StatusBadRequest, status)
	v = decodeData[paper.Validation](t, resp)
	assert.False(t, v.Valid)
	assert.Equal(t, []string{"paper size 'a4' not found"}, v.Errors)
}

func TestSpecificationsAndDisplayName(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodPost, "/api/paper-configurations/specifications", map[string]any{
		"size":    "minkus",
		"options": map[string]string{},
	})
	require.Equal(t, http.StatusOK, status)
	specs := decodeData[paper.Specifications](t, resp)
	assert.Equal(t, "minkus", specs.PaperSize)
	assert.Nil(t, specs.Pages)
	assert.Nil(t, specs.TotalPrice)

	status, resp = srv.do(t, http.MethodPost, "/api/paper-configurations/display-name", map[string]any{
		"size":    "8.5x11",
		"options": letterOptions,
	})
	require.Equal(t, http.StatusOK, status)
	names := decodeData[map[string]string](t, resp)
	assert.Equal(t, "85X11-67LB-CRE-3H-SQ", names["sku"])
	assert.NotEmpty(t, names["display_name"])

	status, _ = srv.do(t, http.MethodPost, "/api/paper-configurations/display-name", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPaperTypes(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodGet, "/api/paper-types", nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeData[struct {
		PaperTypes []catalog.PaperType `json:"paper_types"`
		Default    string              `json:"default"`
	}](t, resp)
	assert.Len(t, list.PaperTypes, 4)
	assert.Equal(t, "standard", list.Default)

	status, resp = srv.do(t, http.MethodGet, "/api/paper-types/premium", nil)
	require.Equal(t, http.StatusOK, status)
	one := decodeData[struct {
		PaperType      catalog.PaperType          `json:"paper_type"`
		Specifications catalog.TypeSpecifications `json:"specifications"`
	}](t, resp)
	assert.Equal(t, "premium", one.PaperType.ID)
	assert.NotEmpty(t, one.Specifications.Physical)

	status, resp = srv.do(t, http.MethodGet, "/api/paper-types/vellum", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Paper type not found", resp.Message)
}

func TestCalculatePaperType(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodPost, "/api/paper-types/calculate", map[string]any{
		"paper_type_id": "premium",
		"pages":         100,
	})
	require.Equal(t, http.StatusOK, status)
	data := decodeData[map[string]any](t, resp)
	assert.Equal(t, 30.0, data["total_price"])
	assert.Equal(t, 23.0, data["weight_oz"])
	assert.Equal(t, 0.5, data["thickness_inches"])

	status, resp = srv.do(t, http.MethodPost, "/api/paper-types/calculate", map[string]any{"paper_type_id": "premium"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "The pages field is required.", resp.Message)

	status, _ = srv.do(t, http.MethodPost, "/api/paper-types/calculate", map[string]any{"paper_type_id": "vellum", "pages": 1})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPaperTypesForAlbum(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodGet, "/api/paper-types/album/minkus", nil)
	require.Equal(t, http.StatusOK, status)
	data := decodeData[struct {
		AlbumType  string              `json:"album_type"`
		PaperTypes []catalog.PaperType `json:"paper_types"`
	}](t, resp)
	assert.Equal(t, "minkus", data.AlbumType)
	require.Len(t, data.PaperTypes, 2)
	assert.Equal(t, "standard", data.PaperTypes[0].ID)

	status, _ = srv.do(t, http.MethodGet, "/api/paper-types/album/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
