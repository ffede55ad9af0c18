package db

import (
	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/money"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order
func Models() []interface{} {
	return []interface{}{
		&model.Product{},
		&model.Course{},
		&model.Order{},
		&model.OrderItem{},
		&model.Booking{},
		&model.CartSnapshot{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed inserts the starter catalog when the catalog is empty
func Seed(db *gorm.DB) error {
	logger.Info("Seeding initial data...")

	if err := seedProducts(db); err != nil {
		logger.Error("Failed to seed products", err)
		return err
	}
	if err := seedCourses(db); err != nil {
		logger.Error("Failed to seed courses", err)
		return err
	}

	logger.Info("Initial data seeded successfully")
	return nil
}

func seedProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Products already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	products := []model.Product{
		{ID: "acr-01", Name: "Acrylic Powder", Category: model.CategoryAcrylic, Price: money.FromMajor(450), ImageURL: "/images/acrylic-powder.webp", Variants: []string{"Clear", "Pink", "Nude"}, StockQuantity: 120, Active: true},
		{ID: "brush-01", Name: "Kolinsky Brush #8", Category: model.CategoryTools, Price: money.FromMajor(650), ImageURL: "/images/brush-8.webp", StockQuantity: 40, Active: true},
		{ID: "gel-02", Name: "Builder Gel", Category: model.CategoryGel, Price: money.MustParse("289.99"), ImageURL: "/images/builder-gel.webp", Variants: []string{"15ml", "50ml"}, StockQuantity: 80, Active: true},
		{ID: "oil-01", Name: "Cuticle Oil", Category: model.CategoryCare, Price: money.FromMajor(95), ImageURL: "/images/cuticle-oil.webp", StockQuantity: 200, Active: true},
	}

	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			logger.Error("Failed to create product", err, map[string]interface{}{
				"product_id": products[i].ID,
			})
			return err
		}
	}

	logger.Info("Products seeded successfully", map[string]interface{}{
		"total_records": len(products),
	})
	return nil
}

func seedCourses(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Courses already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	courses := []model.Course{
		{
			ID:       "acrylic-masterclass",
			Title:    "Acrylic Masterclass",
			Deposit:  money.FromMajor(1800),
			Packages: []model.CoursePackage{{Name: "Course Only", Price: money.FromMajor(3500)}, {Name: "With Kit", Price: money.FromMajor(4500)}},
			Dates:    []string{"2026-11-14", "2026-12-05"},
			Active:   true,
		},
		{
			ID:       "gel-online",
			Title:    "Gel Foundations (Online)",
			IsOnline: true,
			Packages: []model.CoursePackage{{Name: "Self-paced", Price: money.FromMajor(1200)}},
			Dates:    []string{"self-paced"},
			Active:   true,
		},
	}

	for i := range courses {
		if err := db.Create(&courses[i]).Error; err != nil {
			logger.Error("Failed to create course", err, map[string]interface{}{
				"course_id": courses[i].ID,
			})
			return err
		}
	}

	logger.Info("Courses seeded successfully", map[string]interface{}{
		"total_records": len(courses),
	})
	return nil
}
