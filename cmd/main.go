package main

import (
	"fmt"
	"os"

	"social-service/internal/authz"
	"social-service/internal/handler"
	"social-service/internal/identity"
	"social-service/internal/middleware"
	"social-service/internal/model"
	"social-service/internal/social"
	"social-service/internal/store"
	"social-service/pkg/cache"
	"social-service/pkg/config"
	"social-service/pkg/database"
	"social-service/pkg/jwtutil"
	"social-service/pkg/logger"
	"social-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	conf, err := config.Load("social")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", conf.LogConfig()...)

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations
	err = database.MigrateModels(
		&model.Usuario{},
		&model.Empresa{},
		&model.SocialConnection{},
		&model.Post{},
		&model.Activity{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Data accessors
	stores := store.New(db)

	// Identity adapter
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: conf.JWT.SigningKey})
	verifier := identity.NewVerifier(conf.Webhook.Secret, conf.Webhook.MaxClockSkew)
	processor := identity.NewProcessor(stores.Usuarios)

	// Access policy with its TTL-bounded decision cache
	decisionCache := cache.New(conf.Cache.TTL, conf.Cache.CleanupInterval)
	checker := authz.NewChecker(stores.Usuarios, stores.Empresas, decisionCache, conf.Cache.TTL)

	// Platform clients
	instagramClient := social.NewInstagramClient(
		conf.Instagram.ClientID,
		conf.Instagram.ClientSecret,
		conf.Server.BaseURL+conf.Instagram.RedirectPath,
	)
	facebookClient := social.NewFacebookClient(
		conf.Facebook.ClientID,
		conf.Facebook.ClientSecret,
		conf.Server.BaseURL+conf.Facebook.RedirectPath,
	)
	if !instagramClient.IsConfigured() {
		log.Warn("Instagram OAuth credentials not configured; connections will fail")
	}
	if !facebookClient.IsConfigured() {
		log.Warn("Facebook OAuth credentials not configured; connections will fail")
	}

	publishers := map[model.Platform]social.Publisher{
		model.PlatformInstagram: instagramClient,
		model.PlatformFacebook:  facebookClient,
	}

	// Handlers
	authHandler := &handler.AuthHandler{Usuarios: stores.Usuarios, Checker: checker}
	webhookHandler := &handler.WebhookHandler{Verifier: verifier, Processor: processor}
	empresaHandler := &handler.EmpresaHandler{Empresas: stores.Empresas, Checker: checker}
	usuarioHandler := &handler.UsuarioHandler{Usuarios: stores.Usuarios, Checker: checker}
	activityHandler := &handler.ActivityHandler{Activities: stores.Activities}
	postHandler := &handler.PostHandler{
		Posts:      stores.Posts,
		Conexoes:   stores.Conexoes,
		Activities: stores.Activities,
		Clients:    publishers,
	}
	instagramHandler := &handler.SocialHandler{
		Client:      instagramClient,
		Usuarios:    stores.Usuarios,
		Conexoes:    stores.Conexoes,
		Activities:  stores.Activities,
		SettingsURL: conf.SettingsURL,
	}
	facebookHandler := &handler.SocialHandler{
		Client:      facebookClient,
		Usuarios:    stores.Usuarios,
		Conexoes:    stores.Conexoes,
		Activities:  stores.Activities,
		SettingsURL: conf.SettingsURL,
	}
	schedulerHandler := &handler.SchedulerHandler{
		Posts:      stores.Posts,
		Empresas:   stores.Empresas,
		Conexoes:   stores.Conexoes,
		Activities: stores.Activities,
		Clients:    publishers,
		Secret:     conf.Scheduler.Secret,
	}

	// Metrics
	prometheus.Init()

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.Middleware())

	// Public routes
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.POST("/auth/webhook", webhookHandler.IdentityWebhook)
	e.POST("/scheduler/process", schedulerHandler.Process)

	// OAuth callbacks arrive as browser redirects without a session header;
	// the state token resolves the initiating user.
	e.GET("/instagram/callback", instagramHandler.Callback)
	e.GET("/facebook/callback", facebookHandler.Callback)

	// Session routes
	auth := e.Group("/auth")
	auth.Use(middleware.JWTAuthMiddleware(jwt))
	auth.GET("/me", authHandler.Me)
	auth.GET("/check-access", authHandler.CheckAccess)

	// Administration routes - admin role only
	admin := e.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(jwt))
	admin.Use(authz.RequireRole(stores.Usuarios, model.RoleAdmin))
	admin.POST("/empresas", empresaHandler.Create)
	admin.GET("/empresas", empresaHandler.List)
	admin.GET("/empresas/:id", empresaHandler.Get)
	admin.PUT("/empresas/:id", empresaHandler.Update)
	admin.DELETE("/empresas/:id", empresaHandler.Delete)
	admin.GET("/usuarios", usuarioHandler.List)
	admin.PUT("/usuarios/:id", usuarioHandler.Update)
	admin.DELETE("/usuarios/:id", usuarioHandler.Delete)

	// Tenant self-service - payment-gated
	empresas := e.Group("/empresas")
	empresas.Use(middleware.JWTAuthMiddleware(jwt))
	empresas.Use(authz.PaymentCheck(checker))
	empresas.GET("/me", empresaHandler.Me)
	empresas.PUT("/me", empresaHandler.UpdateMe)
	empresas.GET("/me/atividades", activityHandler.List)

	// Content - payment-gated
	posts := e.Group("/posts")
	posts.Use(middleware.JWTAuthMiddleware(jwt))
	posts.Use(authz.PaymentCheck(checker))
	posts.POST("", postHandler.Create)
	posts.GET("", postHandler.List)
	posts.GET("/:id", postHandler.Get)
	posts.PUT("/:id", postHandler.Update)
	posts.DELETE("/:id", postHandler.Delete)
	posts.POST("/:id/publish", postHandler.Publish)

	// Social connections - payment-gated
	instagram := e.Group("/instagram")
	instagram.Use(middleware.JWTAuthMiddleware(jwt))
	instagram.Use(authz.PaymentCheck(checker))
	instagram.GET("/auth-url", instagramHandler.AuthURL)
	instagram.GET("/status", instagramHandler.Status)
	instagram.DELETE("/disconnect", instagramHandler.Disconnect)

	facebook := e.Group("/facebook")
	facebook.Use(middleware.JWTAuthMiddleware(jwt))
	facebook.Use(authz.PaymentCheck(checker))
	facebook.GET("/auth-url", facebookHandler.AuthURL)
	facebook.GET("/status", facebookHandler.Status)
	facebook.DELETE("/disconnect", facebookHandler.Disconnect)

	// Start server
	log.Info("Starting social-service on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
