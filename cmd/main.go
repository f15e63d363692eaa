package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/franciscosanchezn/gin-foodgram-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/controllers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var (
	db            *gorm.DB
	handlers      controllers.Handlers
	createLimiter *middleware.RateLimiter
	configuration *config.Config
)

// @title Foodgram API
// @version 1.0
// @description Recipe sharing API: recipes, favorites, shopping cart and subscriptions
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	// Optional Redis backed rate limiting
	createLimiter = setupRateLimiter(configuration)

	// Initialize services and controllers
	handlers = controllers.NewHandlers(db, controllers.Pagination{
		DefaultSize: configuration.PageSize,
		MaxSize:     configuration.MaxPageSize,
	})

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	level := config.LevelForEnvironment(config.GetEnvWithDefault("APP_ENV", "development"))
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := log.ParseLevel(raw); err == nil {
			level = parsed
		} else {
			log.Warnf("Ignoring invalid LOG_LEVEL %q", raw)
		}
	}
	log.SetLevel(level)
	database.SetLogLevel(level)
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the database, migrates the schema and seeds reference data
func setupDatabase(conf *config.Config) *gorm.DB {
	var err error
	db, err = database.InitDatabase(database.FromAppConfig(conf))
	checkPanicErr(err)

	// Migrate the schema
	checkPanicErr(database.Migrate(db))

	_, err = database.SeedDefaultTags(db)
	checkPanicErr(err)

	if conf.IngredientsFile != "" {
		importIngredients(conf.IngredientsFile)
	}
	return db
}

// importIngredients loads the ingredient seed file; existing rows are kept
func importIngredients(path string) {
	file, err := os.Open(path)
	if err != nil {
		log.WithError(err).Warnf("Could not open ingredients file %s", path)
		return
	}
	defer file.Close()

	created, err := services.NewIngredientService(db).ImportIngredients(context.Background(), file)
	if err != nil {
		log.WithError(err).Error("Failed to import ingredients")
		return
	}
	log.WithField("created", created).Infof("Ingredients imported from %s", path)
}

// setupRateLimiter connects to Redis when REDIS_URL is set. Without Redis
// the limiter lets every request through.
func setupRateLimiter(conf *config.Config) *middleware.RateLimiter {
	client, err := middleware.NewRedisClient(context.Background(), conf.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, recipe creation is not rate limited")
		client = nil
	}
	return middleware.NewRecipeCreationRateLimiter(client, conf.RecipeCreateLimit)
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	if configuration.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.StandardLogger()))
	router.Use(cors.New(corsConfig(configuration.CORSOrigins)))

	// Define routes
	setupRoutes(router)

	return router
}

func corsConfig(origins []string) cors.Config {
	conf := cors.DefaultConfig()
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization")
	conf.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
		conf.AllowCredentials = true
	}
	return conf
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	controllers.SetupRoutes(router, handlers, []byte(configuration.JWTSecret), createLimiter)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-foodgram-api",
	})
}
