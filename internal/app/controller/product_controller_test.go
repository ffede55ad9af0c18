package controller

import (
	"net/http"
	"testing"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productListResponse struct {
	Products []model.Product `json:"products"`
	Count    int             `json:"count"`
}

func TestProductController_ListProducts(t *testing.T) {
	app := setupControllerTest(t, "")

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"all by name", "", []string{"acr-01", "gel-02", "oil-01", "brush-01"}},
		{"category", "?category=gel", []string{"gel-02"}},
		{"search", "?search=brush", []string{"brush-01"}},
		{"price ascending", "?sort=price&order=asc", []string{"oil-01", "gel-02", "acr-01", "brush-01"}},
		{"paged", "?sort=price&order=desc&limit=2&offset=1", []string{"acr-01", "gel-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, nil, http.MethodGet, "/api/v1/products"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var resp productListResponse
			decode(t, w, &resp)

			ids := make([]string, 0, len(resp.Products))
			for _, p := range resp.Products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), resp.Count)
		})
	}

	w := app.do(t, nil, http.MethodGet, "/api/v1/products?sort=popularity", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, nil, http.MethodGet, "/api/v1/products?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductController_GetProduct(t *testing.T) {
	app := setupControllerTest(t, "")

	w := app.do(t, nil, http.MethodGet, "/api/v1/products/acr-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Product model.Product `json:"product"`
	}
	decode(t, w, &resp)
	assert.Equal(t, []string{"Clear", "Pink", "Nude"}, resp.Product.Variants)

	w = app.do(t, nil, http.MethodGet, "/api/v1/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, w))

	// inactive products read as missing
	require.NoError(t, app.db.Model(&model.Product{}).Where("id = ?", "oil-01").Update("active", false).Error)
	w = app.do(t, nil, http.MethodGet, "/api/v1/products/oil-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductController_Courses(t *testing.T) {
	app := setupControllerTest(t, "")

	w := app.do(t, nil, http.MethodGet, "/api/v1/courses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = app.do(t, nil, http.MethodGet, "/api/v1/courses/acrylic-masterclass", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Course model.Course `json:"course"`
	}
	decode(t, w, &resp)
	assert.Len(t, resp.Course.Packages, 2)
	assert.False(t, resp.Course.IsOnline)

	w = app.do(t, nil, http.MethodGet, "/api/v1/courses/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "COURSE_NOT_FOUND", errorCode(t, w))
}
