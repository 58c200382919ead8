package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/controllers"
	"github.com/adiwarsito/resto-pos/middlewares"
	"github.com/adiwarsito/resto-pos/services"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Rate limit global per IP (50 request per detik). Harus terpasang
	// sebelum route didaftarkan: gin mematri handler chain saat registrasi.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	// Inisialisasi services (lifecycle coordinator dan kolaboratornya)
	stockSvc := services.NewStockService(db)
	routingSvc := services.NewRoutingService()
	orderSvc := services.NewOrderService(db, stockSvc, routingSvc)
	sessionSvc := services.NewSessionService(db, orderSvc, stockSvc)

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	customerCtrl := controllers.NewCustomerController(db)
	catalogCtrl := controllers.NewCatalogController(db, stockSvc)
	sessionCtrl := controllers.NewSessionController(db, sessionSvc)
	orderCtrl := controllers.NewOrderController(db, orderSvc)
	ticketCtrl := controllers.NewTicketController(db, orderSvc)
	stockCtrl := controllers.NewStockController(db, stockSvc)
	notificationCtrl := controllers.NewNotificationController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Katalog bisa dibaca tanpa login (menu board, QR customer)
	r.GET("/catalog/products", catalogCtrl.GetSellableProducts)
	r.GET("/catalog/products/:product_id", catalogCtrl.GetProductByID)
	r.GET("/catalog/categories", catalogCtrl.GetAllCategories)
	r.GET("/catalog/packages", catalogCtrl.GetAllPackages)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.EnhancedAuthMiddleware())

	// Profil user
	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/users", userCtrl.GetAllUsers)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables/stats", tableCtrl.GetTableStats)
	auth.GET("/tables/by-status", tableCtrl.FindTablesByStatus)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	auth.PATCH("/tables/:table_id/clean", tableCtrl.MarkTableClean)

	// CUSTOMERS
	auth.GET("/customers", customerCtrl.GetAllCustomers)
	auth.POST("/customers", customerCtrl.CreateCustomer)
	auth.GET("/customers/:customer_id", customerCtrl.GetCustomerByID)
	auth.PATCH("/customers/:customer_id", customerCtrl.UpdateCustomer)

	// SESSIONS (tab lifecycle)
	auth.POST("/sessions", sessionCtrl.OpenSession)
	auth.GET("/sessions", sessionCtrl.GetAllSessions)
	auth.GET("/sessions/:session_id", sessionCtrl.GetSessionByID)
	auth.GET("/sessions/:session_id/bill", sessionCtrl.PreviewBill)
	auth.POST("/sessions/:session_id/abandon", sessionCtrl.AbandonSession)

	// ORDERS (order lifecycle)
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.POST("/orders", orderCtrl.CreateOrder)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.POST("/orders/:order_id/confirm", orderCtrl.ConfirmOrder)
	auth.POST("/orders/:order_id/hold", orderCtrl.HoldOrder)
	auth.POST("/orders/:order_id/resume", orderCtrl.ResumeOrder)
	auth.GET("/orders/:order_id/tickets", ticketCtrl.GetOrderTickets)

	// Endpoint pembayaran dengan rate limiter + audit khusus
	pay := auth.Group("/")
	pay.Use(middlewares.PaymentSecurityHeaders(), middlewares.PaymentRateLimiter(), middlewares.AuditLoggerMiddleware())
	{
		pay.POST("/orders/:order_id/pay", orderCtrl.PayOrder)
		pay.POST("/orders/:order_id/void", orderCtrl.VoidOrder)
		pay.POST("/sessions/:session_id/close", sessionCtrl.CloseSession)
	}

	// KDS (station display)
	auth.GET("/kitchen/tickets", ticketCtrl.GetStationTickets)
	auth.PATCH("/tickets/:ticket_id/status", ticketCtrl.UpdateTicketStatus)

	// STOCK
	auth.GET("/stock/:product_id/movements", stockCtrl.GetMovements)
	auth.POST("/stock/:product_id/adjust", stockCtrl.AdjustStock)
	auth.GET("/stock/reconciliation", stockCtrl.GetReconciliation)

	// NOTIFICATIONS
	auth.GET("/notifications", notificationCtrl.GetAllNotifications)
	auth.PATCH("/notifications/:notif_id/read", notificationCtrl.MarkNotificationRead)

	// WebSocket endpoint dengan middleware khusus
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/:role", middlewares.RoleCheck(), controllers.KDSHandler)
	}

	return r
}
