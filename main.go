package main

import (
	"fmt"
	"net/http"
	"time"

	"imagehub/auth"
	"imagehub/config"
	"imagehub/controllers"
	"imagehub/database"
	"imagehub/repositories"
	"imagehub/services"
	"imagehub/storage"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// AccessLogFilter logs every request with latency, in the zap structured style.
func AccessLogFilter(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("method", req.Request.Method),
			zap.String("path", req.Request.URL.Path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
		)
	}
}

// uploadsHandler serves stored files. Publicly readable, CORS-open for GET
// only.
func uploadsHandler(dir string) http.Handler {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		fs.ServeHTTP(w, r)
	})
}

func main() {
	// Initialize configs
	config.InitConfig()

	var logger *zap.Logger
	switch config.AppConfig.LogLevel {
	case "debug":
		logger, _ = zap.NewDevelopment()
	default:
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync() // Make sure the buffer is flushed before the program exits

	auth.SetSigningKey([]byte(config.AppConfig.JwtSecret))
	auth.SetTokenExpiry(time.Duration(config.AppConfig.TokenExpiryHours) * time.Hour)

	db := database.InitDB()

	store, err := storage.NewDiskStore(config.AppConfig.UploadDir)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(db)
	imageRepo := repositories.NewImageRepository(db)

	authService := services.NewAuthService(userRepo, config.AppConfig.BcryptCost)
	imageService := services.NewImageService(imageRepo, store, config.AppConfig.PublicBaseURL, logger)

	authFilter := auth.AuthFilter(authService)
	authController := controllers.NewAuthController(authService, authFilter)
	imageController := controllers.NewImageController(imageService, authFilter)

	container := restful.NewContainer()
	container.Filter(AccessLogFilter(logger))
	container.RecoverHandler(func(rec interface{}, w http.ResponseWriter) {
		logger.Error("Recovered from panic", zap.Any("panic", rec))
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"Internal Server Error"}`)
	})

	authWS := new(restful.WebService)
	authController.RegisterRoutes(authWS)
	container.Add(authWS)

	imageWS := new(restful.WebService)
	imageController.RegisterRoutes(imageWS)
	container.Add(imageWS)

	// OpenAPI documentation for the registered routes
	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}))

	// CORS with an explicit origin allow-list from configuration
	cors := restful.CrossOriginResourceSharing{
		AllowedDomains: config.AppConfig.CorsOrigins,
		AllowedHeaders: []string{"Content-Type", "Accept", "Authorization"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		CookiesAllowed: true,
		Container:      container,
	}
	container.Filter(cors.Filter)
	container.Filter(container.OPTIONSFilter)

	mux := http.NewServeMux()
	mux.Handle("/uploads/", uploadsHandler(store.Dir()))
	mux.Handle("/", container)

	addr := fmt.Sprintf(":%d", config.AppConfig.HTTPPort)
	logger.Info("Starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
