package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"healthdaily/internal/profile"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	e.Use(LoggerMiddleware)

	// Public routes
	e.GET("/health", s.healthHandler)
	e.POST("/signup", s.SignupHandler)
	e.POST("/login", s.LoginHandler)

	// Protected routes
	protected := e.Group("")
	protected.Use(profile.JwtAuthMiddleware(s.secret))

	// Profile routes
	protected.GET("/profile", s.GetProfileHandler)
	protected.PUT("/profile", s.UpdateProfileHandler)
	protected.DELETE("/profile", s.DeleteProfileHandler)

	// Meal & diet routes
	protected.POST("/meals", s.tracker.RecordMealHandler)
	protected.POST("/diet/calories", s.tracker.EstimateDietCaloriesHandler)

	// Exercise routes
	protected.POST("/exercise", s.tracker.RecordExerciseHandler)
	protected.POST("/exercise/calories", s.tracker.EstimateExerciseCaloriesHandler)

	// Negative factor routes
	protected.POST("/factors", s.tracker.ReportFactorHandler)
	protected.POST("/factors/recover", s.tracker.MarkRecoveredHandler)
	protected.GET("/factors/eligibility", s.tracker.EligibilityHandler)
	protected.GET("/factors/summary", s.tracker.ImpactSummaryHandler)

	// Hydration routes
	protected.POST("/hydration", s.tracker.AddCupHandler)
	protected.PUT("/hydration", s.tracker.SetCupsHandler)

	// Plan & summary routes
	protected.GET("/plan", s.tracker.GetPlanHandler)
	protected.POST("/plan/generate", s.tracker.RegeneratePlanHandler)
	protected.POST("/summary", s.tracker.WriteSummaryHandler)

	// Record retrieval
	protected.GET("/record", s.tracker.GetRecordHandler)

	// Websocket for record-change notifications
	protected.GET("/ws", s.hub.Handler)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	v, _ := mem.VirtualMemory()
	cpuPercent, _ := cpu.Percent(0, false)
	d, _ := disk.Usage("/")
	hInfo, _ := host.Info()

	body := map[string]interface{}{
		"status": "online",
		"runtime": map[string]interface{}{
			"uptime":     time.Since(s.startTime).String(),
			"start_time": s.startTime.Format(time.RFC3339),
			"os":         hInfo.OS,
			"platform":   hInfo.Platform,
			"hostname":   hInfo.Hostname,
		},
		"cpu": map[string]interface{}{
			"usage_percent": fmt.Sprintf("%.2f%%", firstOrZero(cpuPercent)),
			"cores":         hInfo.Procs,
		},
		"memory": map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		},
		"disk": map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		},
	}
	if s.db != nil {
		body["database"] = s.db.Health()
	} else {
		body["storage"] = map[string]string{"backend": "file"}
	}
	return c.JSON(http.StatusOK, body)
}

func firstOrZero(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}

// LoggerMiddleware tags every request with an id and stashes a request-scoped
// logger in the context.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Set("logger", &logger)

		return next(c)
	}
}
