package service

import (
	"errors"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidVariant     = errors.New("variant is not offered for this product")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCourseNotFound     = errors.New("course not found")
)

type ProductListOptions struct {
	Category      *model.ProductCategory
	Search        string
	Sort          repository.ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

// ProductService serves the read-only catalog: products and courses
type ProductService interface {
	ListProducts(opts ProductListOptions) ([]model.Product, error)
	GetProductByID(id string) (*model.Product, error)
	ListCourses() ([]model.Course, error)
	GetCourseByID(id string) (*model.Course, error)
}

type productService struct {
	productRepo repository.ProductRepository
	courseRepo  repository.CourseRepository
}

func NewProductService(productRepo repository.ProductRepository, courseRepo repository.CourseRepository) ProductService {
	return &productService{
		productRepo: productRepo,
		courseRepo:  courseRepo,
	}
}

func (s *productService) ListProducts(opts ProductListOptions) ([]model.Product, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"category": opts.Category,
		"search":   opts.Search,
		"sort":     opts.Sort,
	})

	products, err := s.productRepo.FindWithFilter(repository.ProductFilter{
		Category:      opts.Category,
		Search:        opts.Search,
		SortBy:        opts.Sort,
		SortAscending: opts.SortAscending,
		Limit:         opts.Limit,
		Offset:        opts.Offset,
	})
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}
	return products, nil
}

// GetProductByID returns active products only; inactive ones read as not found
func (s *productService) GetProductByID(id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Active {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) ListCourses() ([]model.Course, error) {
	courses, err := s.courseRepo.FindAll(false)
	if err != nil {
		logger.Error("Failed to list courses", err)
		return nil, err
	}
	return courses, nil
}

func (s *productService) GetCourseByID(id string) (*model.Course, error) {
	course, err := s.courseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Course not found", map[string]interface{}{
				"course_id": id,
			})
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.Active {
		return nil, ErrCourseNotFound
	}
	return course, nil
}
