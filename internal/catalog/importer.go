// Package catalog loads products and courses from a spreadsheet.
//
// The workbook has a "Products" sheet and an optional "Courses" sheet. The
// first row of each is a header; columns are matched by name, so their order
// does not matter.
//
//	Products: id, name, description, category, price, image_url, variants, stock, active
//	Courses:  id, title, description, image_url, online, deposit, packages, dates, active
//
// Lists are comma separated. Packages are written "Course Only=3500; With Kit=4500".
package catalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/money"
	"github.com/xuri/excelize/v2"
)

const (
	ProductsSheet = "Products"
	CoursesSheet  = "Courses"
)

// RowError describes a row that was skipped
type RowError struct {
	Sheet string
	Row   int // 1-based, as shown in a spreadsheet
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Sheet, e.Row, e.Err)
}

type Catalog struct {
	Products []model.Product
	Courses  []model.Course
	Skipped  []RowError
}

type ImportResult struct {
	Products int
	Courses  int
}

// Read parses a workbook
func Read(r io.Reader) (*Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	productRows, err := f.GetRows(ProductsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", ProductsSheet, err)
	}

	catalog := &Catalog{}
	readSheet(ProductsSheet, productRows, catalog, func(row record) error {
		product, err := parseProduct(row)
		if err != nil {
			return err
		}
		catalog.Products = append(catalog.Products, *product)
		return nil
	})

	if idx, _ := f.GetSheetIndex(CoursesSheet); idx >= 0 {
		courseRows, err := f.GetRows(CoursesSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s sheet: %w", CoursesSheet, err)
		}
		readSheet(CoursesSheet, courseRows, catalog, func(row record) error {
			course, err := parseCourse(row)
			if err != nil {
				return err
			}
			catalog.Courses = append(catalog.Courses, *course)
			return nil
		})
	}

	return catalog, nil
}

// Import upserts every parsed entry. Entries missing from the workbook are
// left untouched.
func Import(c *Catalog, productRepo repository.ProductRepository, courseRepo repository.CourseRepository) (*ImportResult, error) {
	result := &ImportResult{}

	for i := range c.Products {
		if err := productRepo.Upsert(&c.Products[i]); err != nil {
			return result, fmt.Errorf("product %s: %w", c.Products[i].ID, err)
		}
		result.Products++
	}
	for i := range c.Courses {
		if err := courseRepo.Upsert(&c.Courses[i]); err != nil {
			return result, fmt.Errorf("course %s: %w", c.Courses[i].ID, err)
		}
		result.Courses++
	}

	logger.Info("Catalog imported", map[string]interface{}{
		"products": result.Products,
		"courses":  result.Courses,
		"skipped":  len(c.Skipped),
	})
	return result, nil
}

// record is one data row keyed by lowercased header
type record map[string]string

func (r record) get(col string) string {
	return strings.TrimSpace(r[col])
}

func readSheet(sheet string, rows [][]string, c *Catalog, fn func(record) error) {
	if len(rows) == 0 {
		return
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(record, len(header))
		for col, name := range header {
			if col < len(row) {
				rec[name] = row[col]
			}
		}
		if err := fn(rec); err != nil {
			c.Skipped = append(c.Skipped, RowError{Sheet: sheet, Row: i + 2, Err: err})
		}
	}
}

func parseProduct(row record) (*model.Product, error) {
	id := row.get("id")
	name := row.get("name")
	if id == "" || name == "" {
		return nil, fmt.Errorf("id and name are required")
	}

	price, err := money.Parse(row.get("price"))
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", row.get("price"), err)
	}
	if price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}

	stock := 0
	if raw := row.get("stock"); raw != "" {
		if stock, err = strconv.Atoi(raw); err != nil || stock < 0 {
			return nil, fmt.Errorf("invalid stock %q", raw)
		}
	}

	active, err := parseBool(row.get("active"), true)
	if err != nil {
		return nil, err
	}

	return &model.Product{
		ID:            id,
		Name:          name,
		Description:   row.get("description"),
		Category:      model.ProductCategory(strings.ToLower(row.get("category"))),
		Price:         price,
		ImageURL:      row.get("image_url"),
		Variants:      splitList(row.get("variants")),
		StockQuantity: stock,
		Active:        active,
	}, nil
}

func parseCourse(row record) (*model.Course, error) {
	id := row.get("id")
	title := row.get("title")
	if id == "" || title == "" {
		return nil, fmt.Errorf("id and title are required")
	}

	online, err := parseBool(row.get("online"), false)
	if err != nil {
		return nil, err
	}

	var deposit money.Amount
	if raw := row.get("deposit"); raw != "" {
		if deposit, err = money.Parse(raw); err != nil {
			return nil, fmt.Errorf("invalid deposit %q: %w", raw, err)
		}
	}

	packages, err := parsePackages(row.get("packages"))
	if err != nil {
		return nil, err
	}
	if len(packages) == 0 {
		return nil, fmt.Errorf("at least one package is required")
	}

	active, err := parseBool(row.get("active"), true)
	if err != nil {
		return nil, err
	}

	return &model.Course{
		ID:          id,
		Title:       title,
		Description: row.get("description"),
		ImageURL:    row.get("image_url"),
		IsOnline:    online,
		Deposit:     deposit,
		Packages:    packages,
		Dates:       splitList(row.get("dates")),
		Active:      active,
	}, nil
}

func parsePackages(raw string) ([]model.CoursePackage, error) {
	var packages []model.CoursePackage
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, priceStr, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("package %q must be written name=price", part)
		}
		price, err := money.Parse(strings.TrimSpace(priceStr))
		if err != nil {
			return nil, fmt.Errorf("invalid price for package %q: %w", name, err)
		}
		packages = append(packages, model.CoursePackage{Name: strings.TrimSpace(name), Price: price})
	}
	return packages, nil
}

func parseBool(raw string, fallback bool) (bool, error) {
	switch strings.ToLower(raw) {
	case "":
		return fallback, nil
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid yes/no value %q", raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
