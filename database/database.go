package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"imagehub/config"
	"imagehub/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the configured MySQL database, runs migrations and returns
// the handle. The handle is owned by main and injected into the services.
func InitDB() *gorm.DB {
	dsn := config.AppConfig.DatabaseURL

	// GORM logger configuration
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		panic(fmt.Errorf("failed to connect database: %w", err))
	}

	if err := db.AutoMigrate(&models.User{}, &models.Image{}); err != nil {
		panic(fmt.Errorf("failed to migrate database: %w", err))
	}

	SeedInitialData(db)
	return db
}

// SeedInitialData creates an initial admin account if none exists.
func SeedInitialData(db *gorm.DB) {
	var admin models.User
	err := db.Where("role = ?", models.RoleAdmin).First(&admin).Error
	if err != gorm.ErrRecordNotFound {
		return
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("adminpassword"), config.AppConfig.BcryptCost)
	admin = models.User{
		Email:    "admin@example.com",
		Password: string(hashedPassword),
		Name:     "admin",
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Failed to create initial admin user: %v\n", err)
	} else {
		log.Println("Created initial admin user.")
	}
}
