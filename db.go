package main

import (
	"log"
	"os"
	"strings"

	"winequiz/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Roles first so the users FK can be applied safely, then the rest
		// individually so a failure on one doesn't block others.
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Wine{}); err != nil {
			log.Printf("migration warning (wines): %v", err)
		}
		if err := db.AutoMigrate(&models.GameRound{}); err != nil {
			log.Printf("migration warning (game_rounds): %v", err)
		}
		if err := db.AutoMigrate(&models.LabelUpload{}); err != nil {
			log.Printf("migration warning (label_uploads): %v", err)
		}
		if err := db.AutoMigrate(&models.PointsEntry{}); err != nil {
			log.Printf("migration warning (points_entries): %v", err)
		}
	}
	seedDB()
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Username: "admin",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}

	// Optional starter catalog so a fresh instance has something to match
	// against (SEED_WINES=1). Imports go through cmd/seed_wines otherwise.
	if v := strings.ToLower(os.Getenv("SEED_WINES")); v == "1" || v == "true" {
		seedWines()
	}
	ensureUploadBase()
}

func seedWines() {
	vintage := func(y int) *int { return &y }
	wines := []models.Wine{
		{DisplayName: "Château Example Margaux", Country: "France", Region: "Bordeaux", Appellation: "Margaux", Variety: "Merlot", Vintage: vintage(2015)},
		{DisplayName: "Domaine Vieux Pommard", Country: "France", Region: "Burgundy", Appellation: "Pommard", Variety: "Pinot Noir", Vintage: vintage(2019)},
		{DisplayName: "Maison Perle Blanc de Blancs", Country: "France", Region: "Champagne", Appellation: "Épernay", Variety: "Chardonnay", Vintage: nil},
		{DisplayName: "Tenuta Prova Chianti Classico", Country: "Italy", Region: "Tuscany", Appellation: "Chianti Classico", Variety: "Sangiovese", Vintage: vintage(2018)},
		{DisplayName: "Bodega Modelo Rioja Reserva", Country: "Spain", Region: "Rioja", Appellation: "Rioja Alta", Variety: "Tempranillo", Vintage: vintage(2016)},
		{DisplayName: "Stonebrook Vineyards Napa Cabernet", Country: "USA", Region: "Napa Valley", Appellation: "Oakville", Variety: "Cabernet Sauvignon", Vintage: vintage(2019)},
		{DisplayName: "Ridgeline Barossa Shiraz", Country: "Australia", Region: "Barossa Valley", Appellation: "", Variety: "Syrah", Vintage: vintage(2020)},
		{DisplayName: "Southern Cross Marlborough Sauvignon Blanc", Country: "New Zealand", Region: "Marlborough", Appellation: "", Variety: "Sauvignon Blanc", Vintage: vintage(2022)},
	}
	for _, w := range wines {
		var cnt int64
		db.Model(&models.Wine{}).Where("display_name = ?", w.DisplayName).Count(&cnt)
		if cnt == 0 {
			if err := db.Create(&w).Error; err != nil {
				log.Printf("seed wine %q failed: %v", w.DisplayName, err)
			}
		}
	}
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
