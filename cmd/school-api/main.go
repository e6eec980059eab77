package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/wmesaf/basicschool-api/internal/handler"
	"github.com/wmesaf/basicschool-api/internal/middleware"
	"github.com/wmesaf/basicschool-api/internal/repository"
	"github.com/wmesaf/basicschool-api/internal/service"
	"github.com/wmesaf/basicschool-api/pkg/cache"
	"github.com/wmesaf/basicschool-api/pkg/config"
	"github.com/wmesaf/basicschool-api/pkg/database"
	"github.com/wmesaf/basicschool-api/pkg/logger"
	corsmiddleware "github.com/wmesaf/basicschool-api/pkg/middleware/cors"
	reqidmiddleware "github.com/wmesaf/basicschool-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Statistics fall back to direct queries without Redis.
		logr.Sugar().Warnw("redis unavailable, statistics caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	personRepo := repository.NewPersonRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	courseSvc := service.NewCourseService(courseRepo, personRepo, cacheRepo, cfg.Statistics.CacheTTL, validate, metricsSvc, logr)
	enrollmentSvc := service.NewEnrollmentService(db, enrollmentRepo, courseRepo, personRepo, metricsSvc, logr)
	studentSvc := service.NewStudentService(personRepo, validate, logr)
	teacherSvc := service.NewTeacherService(personRepo, validate, logr)
	maintenanceSvc := service.NewMaintenanceService(personRepo, logr)
	reportSvc := service.NewReportService(courseRepo, enrollmentSvc, logr)

	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		courses := api.Group("/courses")
		{
			courses.GET("", courseHandler.List)
			courses.POST("", courseHandler.Create)
			courses.GET("/:id", courseHandler.Get)
			courses.PUT("/:id", courseHandler.Update)
			courses.DELETE("/:id", courseHandler.Delete)
			courses.GET("/:id/seats", enrollmentHandler.Seats)
			courses.GET("/:id/enrollments", enrollmentHandler.Roster)
			courses.POST("/:id/enrollments", enrollmentHandler.Enroll)
			courses.DELETE("/:id/enrollments/:studentId", enrollmentHandler.Unenroll)
		}

		students := api.Group("/students")
		{
			students.GET("", studentHandler.List)
			students.POST("", studentHandler.Create)
			students.GET("/:id", studentHandler.Get)
			students.PUT("/:id", studentHandler.Update)
			students.DELETE("/:id", studentHandler.Delete)
			students.GET("/:id/courses", courseHandler.ByStudent)
		}

		teachers := api.Group("/teachers")
		{
			teachers.GET("", teacherHandler.List)
			teachers.POST("", teacherHandler.Create)
			teachers.GET("/:id", teacherHandler.Get)
			teachers.PUT("/:id", teacherHandler.Update)
			teachers.DELETE("/:id", teacherHandler.Delete)
			teachers.GET("/:id/courses", courseHandler.ByTeacher)
		}

		api.GET("/statistics/courses", courseHandler.Statistics)

		if cfg.Reports.Enabled {
			reports := api.Group("/reports")
			{
				reports.GET("/courses", reportHandler.CourseCatalog)
				reports.GET("/courses/:id/roster", reportHandler.CourseRoster)
			}
		}

		api.POST("/admin/maintenance/reorganize-identities", maintenanceHandler.ReorganizeIdentities)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
