package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/config"
	"github.com/adiwarsito/resto-pos/database"
	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/router"
	"github.com/adiwarsito/resto-pos/services"
	"github.com/adiwarsito/resto-pos/utils"
)

func init() {
	utils.InitLogger()

	// Load .env file di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Printf("Warning: .env file not found or error loading: %v", err)
	}
}

func main() {
	// Initialize DB
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	// Simpan koneksi database ke utils untuk digunakan di controller
	utils.InitDB(db)

	// Set gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Sapuan stok periodik sebagai jaring pengaman notifikasi low-stock
	monitor := services.NewStockMonitor(db)
	monitor.Interval = 30 * time.Second
	monitor.Start()
	defer monitor.Stop()

	// Setup router
	r := router.SetupRouter(db)

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	// Run server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.Package{},
		&models.PackageItem{},
		&models.Session{},
		&models.Order{},
		&models.OrderItem{},
		&models.PrepTicket{},
		&models.StockMovement{},
		&models.Notification{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	// Pengaman invariant lapis kedua di storage
	if err := database.InstallConstraints(db); err != nil {
		utils.ErrorLogger.Printf("Error installing constraints: %v", err)
	}
}
