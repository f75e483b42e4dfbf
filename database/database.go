package database

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	config "counselcore/configs"
	"counselcore/models"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Counselor{},
		&models.Specialty{},
		&models.CounselorSpecialty{},
		&models.SlotUnit{},
		&models.PackagePurchase{},
		&models.SessionInstance{},
		&models.RefundRequest{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("ADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedSpecialties inserts any missing members of the fixed specialty set.
func SeedSpecialties() {
	for _, name := range models.SpecialtyNames {
		var count int64
		if err := DB.Model(&models.Specialty{}).Where("name = ?", name).Count(&count).Error; err != nil {
			log.Fatalf("🔥 Failed to check specialty %s: %v", name, err)
			return
		}
		if count > 0 {
			continue
		}
		if err := DB.Create(&models.Specialty{Name: name}).Error; err != nil {
			log.Fatalf("🔥 Failed to seed specialty %s: %v", name, err)
			return
		}
	}
	log.Println("✅ Specialties seeded successfully")
}
