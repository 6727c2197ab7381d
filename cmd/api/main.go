package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"finsight/internal/config"
	"finsight/internal/database"
	"finsight/internal/handlers"
	"finsight/internal/logger"
	"finsight/internal/middleware"
	"finsight/internal/news"
	"finsight/internal/quotes"
	"finsight/internal/services"
	"finsight/internal/validator"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Quote lookups go through the rate-limited caching client regardless of
	// the underlying source, so swapping in a real provider later only
	// changes the fetcher.
	quoteSource, err := quotes.NewClient(quotes.NewStaticSource(), quotes.Options{
		RatePerMinute: appConfig.QuoteRatePerMinute,
		Burst:         appConfig.QuoteBurst,
		CacheTTL:      appConfig.QuoteCacheTTL,
		Timeout:       appConfig.QuoteTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create quote client: %w", err)
	}

	newsProvider := news.NewStaticProvider()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, accountService)
	budgetService := services.NewBudgetService(db)
	goalService := services.NewGoalService(db)
	subscriptionService := services.NewSubscriptionService(db)
	investmentService := services.NewInvestmentService(db, accountService, quoteSource)
	analyticsService := services.NewAnalyticsService(db, investmentService)
	insightService := services.NewInsightService(db, investmentService, subscriptionService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	goalHandler := handlers.NewGoalHandler(goalService, auditService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, auditService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService, auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	insightHandler := handlers.NewInsightHandler(insightService)
	newsHandler := handlers.NewNewsHandler(newsProvider)
	quoteStreamHandler := handlers.NewQuoteStreamHandler(quoteSource)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.Me)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeactivateAccount)
	accounts.POST("/:id/adjust-balance", accountHandler.AdjustBalance)
	accounts.GET("/:id/transactions", transactionHandler.ListAccountTransactions)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.POST("/:id/allocations", budgetHandler.AddAllocation)
	budgets.PUT("/:id/allocations/:allocationId", budgetHandler.UpdateAllocation)
	budgets.DELETE("/:id/allocations/:allocationId", budgetHandler.RemoveAllocation)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	// Goal routes
	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.ListGoals)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/contribute", goalHandler.Contribute)

	// Subscription routes
	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("", subscriptionHandler.ListSubscriptions)
	subscriptions.PUT("/:id", subscriptionHandler.UpdateSubscription)
	subscriptions.DELETE("/:id", subscriptionHandler.DeleteSubscription)

	// Investment routes
	holdings := protected.Group("/holdings")
	holdings.POST("", investmentHandler.CreateHolding)
	holdings.GET("", investmentHandler.ListHoldings)
	holdings.GET("/:id", investmentHandler.GetHolding)
	holdings.POST("/:id/purchase", investmentHandler.RecordPurchase)
	holdings.POST("/:id/sell", investmentHandler.RecordSale)
	holdings.DELETE("/:id", investmentHandler.DeleteHolding)
	protected.GET("/portfolio", investmentHandler.GetPortfolio)

	// Insight routes
	insights := protected.Group("/insights")
	insights.GET("", insightHandler.ListInsights)
	insights.POST("/generate", insightHandler.GenerateInsights)
	insights.POST("/:id/dismiss", insightHandler.DismissInsight)

	// Analytics routes
	protected.GET("/analytics/health-score", analyticsHandler.GetHealthScore)
	protected.GET("/analytics/dashboard", analyticsHandler.GetDashboard)

	// Market data routes
	protected.GET("/news", newsHandler.TopStories)
	protected.GET("/quotes/stream", quoteStreamHandler.StreamQuotes)

	log.Infof("Starting FinSight backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
