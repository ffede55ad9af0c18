package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	apperrors "github.com/ikkim/cosmetica-backend/internal/errors"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
)

const maxPageSize = 100

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ListProducts returns the active catalog
// GET /api/v1/products?category=&search=&sort=&order=&limit=&offset=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.ProductListOptions{
		Search:        strings.TrimSpace(c.Query("search")),
		SortAscending: c.DefaultQuery("order", "asc") != "desc",
	}

	if raw := c.Query("category"); raw != "" {
		category := model.ProductCategory(strings.ToLower(raw))
		opts.Category = &category
	}

	switch sort := repository.ProductSort(c.Query("sort")); sort {
	case "", repository.ProductSortName, repository.ProductSortPrice, repository.ProductSortCreatedAt:
		opts.Sort = sort
	default:
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unknown sort field")
		return
	}

	var err error
	if opts.Limit, err = queryInt(c, "limit", 0); err != nil || opts.Limit < 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid limit")
		return
	}
	if opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}
	if opts.Offset, err = queryInt(c, "offset", 0); err != nil || opts.Offset < 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid offset")
		return
	}

	products, err := ctrl.productService.ListProducts(opts)
	if err != nil {
		respondServiceError(c, err, "list products")
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(products),
	})

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns one product by slug
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	product, err := ctrl.productService.GetProductByID(c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// ListCourses returns every active course
// GET /api/v1/courses
func (ctrl *ProductController) ListCourses(c *gin.Context) {
	courses, err := ctrl.productService.ListCourses()
	if err != nil {
		respondServiceError(c, err, "list courses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"count":   len(courses),
	})
}

// GetCourse returns a course with its packages and dates
// GET /api/v1/courses/:id
func (ctrl *ProductController) GetCourse(c *gin.Context) {
	course, err := ctrl.productService.GetCourseByID(c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get course")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"course": course,
	})
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
