package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/config"
	"github.com/zhice-consulting/cms-backend/internal/database"
	"github.com/zhice-consulting/cms-backend/internal/handler"
	"github.com/zhice-consulting/cms-backend/internal/middleware"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/redis"
	"github.com/zhice-consulting/cms-backend/internal/repository"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
	"github.com/zhice-consulting/cms-backend/web"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	// 初始化 Redis 连接
	if err := redis.Init(&cfg.Redis); err != nil {
		log.Fatalf("初始化 Redis 失败: %v", err)
	}
	defer redis.Close()
	log.Println("Redis 连接成功")

	// 自动迁移数据库表
	if err := database.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.UserPermission{},
		&model.Post{},
		&model.Category{},
		&model.Gallery{},
		&model.GalleryImage{},
		&model.Consultation{},
		&model.Activity{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库迁移完成")

	// 初始化 Repository
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	permRepo := repository.NewUserPermissionRepository(db)
	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// 生成 RSA 密钥对（生产环境应从配置文件加载）
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		log.Fatalf("生成 RSA 密钥失败: %v", err)
	}

	// 初始化 Service
	activityService := service.NewActivityService(activityRepo, middleware.GetLogger())
	permissionService := service.NewPermissionService(roleRepo, permRepo, userRepo, activityService)
	userService := service.NewUserService(userRepo, permRepo, activityService)
	contentService := service.NewContentService(postRepo, categoryRepo, activityService)
	galleryService := service.NewGalleryService(galleryRepo, activityService)
	consultationService := service.NewConsultationService(consultationRepo, activityService)
	tokenService := service.NewTokenService(&service.TokenServiceConfig{
		PrivateKey:    privateKey,
		PublicKey:     &privateKey.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		AccessExpiry:  cfg.JWT.AccessExpiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
	})
	sessionService := service.NewSessionService(redis.GetClient(), &service.SessionServiceConfig{
		SessionExpiry: cfg.Session.Expiry,
	})

	// 初始化系统默认角色
	if err := permissionService.EnsureDefaultRoles(context.Background()); err != nil {
		log.Fatalf("初始化默认角色失败: %v", err)
	}
	log.Println("默认角色就绪")

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(userService, tokenService, sessionService, permissionService)
	userHandler := handler.NewUserHandler(userService, permissionService)
	permissionHandler := handler.NewPermissionHandler(permissionService)
	contentHandler := handler.NewContentHandler(contentService)
	galleryHandler := handler.NewGalleryHandler(galleryService)
	consultationHandler := handler.NewConsultationHandler(consultationService)
	activityHandler := handler.NewActivityHandler(activityService)
	uploadHandler := handler.NewUploadHandler(cfg.Upload.Dir, cfg.Upload.BaseURL, cfg.Upload.MaxSize)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()

	// 全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		if err := database.Ping(); err != nil {
			dbStatus = "error"
		}

		redisStatus := "ok"
		redisClient := redis.GetClient()
		if redisClient == nil {
			redisStatus = "error"
		} else if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error"
		}

		response.Success(c, gin.H{
			"status":   "ok",
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
			"redis":    redisStatus,
		})
	})

	// 上传文件静态访问
	router.Static("/uploads", cfg.Upload.Dir)

	// API 路由组
	api := router.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, "pong")
		})

		// 官网公开接口（无需登录）
		public := api.Group("/public")
		{
			public.GET("/posts", contentHandler.ListPublishedPosts)
			public.GET("/posts/:slug", contentHandler.GetPublishedPost)
			public.GET("/categories", contentHandler.ListCategories)
			public.GET("/galleries", galleryHandler.List)
			public.GET("/galleries/:id", galleryHandler.Get)
			public.POST("/consultations", consultationHandler.Submit)
		}

		// 认证路由（公开）
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		// 需要认证的路由
		authRequired := api.Group("")
		authRequired.Use(middleware.JWTAuth(tokenService))
		{
			authRequired.POST("/auth/logout", authHandler.Logout)
			authRequired.GET("/auth/me", authHandler.GetCurrentUser)
			authRequired.GET("/auth/check", permissionHandler.CheckPermission)
			authRequired.GET("/auth/permissions", permissionHandler.GetMyPermissions)
			authRequired.PUT("/auth/password", userHandler.ChangePassword)

			authRequired.POST("/upload", uploadHandler.Upload)

			// 用户管理
			users := authRequired.Group("/users")
			{
				users.GET("", middleware.RequirePermission(permissionService, model.ModuleUsers, model.ActionRead), userHandler.List)
				users.POST("", middleware.RequirePermission(permissionService, model.ModuleUsers, model.ActionWrite), userHandler.Create)
				users.GET("/:id", middleware.RequirePermission(permissionService, model.ModuleUsers, model.ActionRead), userHandler.Get)
				users.PUT("/:id", middleware.RequirePermission(permissionService, model.ModuleUsers, model.ActionWrite), userHandler.Update)
				users.DELETE("/:id", middleware.RequirePermission(permissionService, model.ModuleUsers, model.ActionDelete), userHandler.Delete)
				users.POST("/:id/role", middleware.RequirePermission(permissionService, model.ModuleRoles, model.ActionWrite), permissionHandler.AssignRole)
				users.GET("/:id/permissions", middleware.RequirePermission(permissionService, model.ModuleRoles, model.ActionRead), permissionHandler.GetUserPermissions)
				users.PUT("/:id/permissions", middleware.RequirePermission(permissionService, model.ModuleRoles, model.ActionWrite), permissionHandler.SetUserPermissions)
			}

			// 角色管理
			roles := authRequired.Group("/roles")
			{
				roles.GET("", middleware.RequirePermission(permissionService, model.ModuleRoles, model.ActionRead), permissionHandler.ListRoles)
				roles.POST("", middleware.RequirePermission(permissionService, model.ModuleRoles, model.ActionWrite), permissionHandler.CreateRole)
				roles.GET("/:id", middleware.RequirePermission(permissionService, model.ModuleRoles, model.ActionRead), permissionHandler.GetRole)
				roles.PUT("/:id", middleware.RequirePermission(permissionService, model.ModuleRoles, model.ActionWrite), permissionHandler.UpdateRole)
				roles.DELETE("/:id", middleware.RequirePermission(permissionService, model.ModuleRoles, model.ActionDelete), permissionHandler.DeleteRole)
			}

			// 文章管理
			posts := authRequired.Group("/posts")
			{
				posts.GET("", middleware.RequirePermission(permissionService, model.ModulePosts, model.ActionRead), contentHandler.ListPosts)
				posts.POST("", middleware.RequirePermission(permissionService, model.ModulePosts, model.ActionWrite), contentHandler.CreatePost)
				posts.GET("/:id", middleware.RequirePermission(permissionService, model.ModulePosts, model.ActionRead), contentHandler.GetPost)
				posts.PUT("/:id", middleware.RequirePermission(permissionService, model.ModulePosts, model.ActionWrite), contentHandler.UpdatePost)
				posts.POST("/:id/publish", middleware.RequirePermission(permissionService, model.ModulePosts, model.ActionWrite), contentHandler.PublishPost)
				posts.DELETE("/:id", middleware.RequirePermission(permissionService, model.ModulePosts, model.ActionDelete), contentHandler.DeletePost)
			}

			// 分类管理
			categories := authRequired.Group("/categories")
			{
				categories.POST("", middleware.RequirePermission(permissionService, model.ModuleCategories, model.ActionWrite), contentHandler.CreateCategory)
				categories.PUT("/:id", middleware.RequirePermission(permissionService, model.ModuleCategories, model.ActionWrite), contentHandler.UpdateCategory)
				categories.DELETE("/:id", middleware.RequirePermission(permissionService, model.ModuleCategories, model.ActionDelete), contentHandler.DeleteCategory)
			}

			// 图库管理
			galleries := authRequired.Group("/galleries")
			{
				galleries.POST("", middleware.RequirePermission(permissionService, model.ModuleGalleries, model.ActionWrite), galleryHandler.Create)
				galleries.PUT("/:id", middleware.RequirePermission(permissionService, model.ModuleGalleries, model.ActionWrite), galleryHandler.Update)
				galleries.DELETE("/:id", middleware.RequirePermission(permissionService, model.ModuleGalleries, model.ActionDelete), galleryHandler.Delete)
				galleries.POST("/:id/images", middleware.RequirePermission(permissionService, model.ModuleGalleries, model.ActionWrite), galleryHandler.AddImage)
				galleries.DELETE("/:id/images/:image_id", middleware.RequirePermission(permissionService, model.ModuleGalleries, model.ActionWrite), galleryHandler.RemoveImage)
			}

			// 咨询线索管理
			consultations := authRequired.Group("/consultations")
			{
				consultations.GET("", middleware.RequirePermission(permissionService, model.ModuleConsultations, model.ActionRead), consultationHandler.List)
				consultations.GET("/:id", middleware.RequirePermission(permissionService, model.ModuleConsultations, model.ActionRead), consultationHandler.Get)
				consultations.PUT("/:id/status", middleware.RequirePermission(permissionService, model.ModuleConsultations, model.ActionWrite), consultationHandler.UpdateStatus)
				consultations.DELETE("/:id", middleware.RequirePermission(permissionService, model.ModuleConsultations, model.ActionDelete), consultationHandler.Delete)
			}

			// 操作日志
			authRequired.GET("/activities", middleware.RequirePermission(permissionService, model.ModuleActivities, model.ActionRead), activityHandler.List)
		}
	}

	// 后台前端静态文件
	static := web.NewStaticHandler(nil)
	static.SetupRoutes(router)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		log.Printf("服务启动，监听地址: %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，等待 5 秒
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务关闭失败: %v", err)
	}

	// 关闭数据库和 Redis 连接
	database.Close()
	redis.Close()

	log.Println("服务已关闭")
}
