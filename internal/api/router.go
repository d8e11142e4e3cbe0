// Package api assembles the HTTP routes of the vaccination record server.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/vaccert/vaccination-server/internal/api/handlers"
	"github.com/vaccert/vaccination-server/internal/api/middleware"
	"go.uber.org/zap"
)

// Handlers bundles everything the router dispatches to
type Handlers struct {
	Auth     *handlers.AuthHandler
	Patients *handlers.PatientHandler
	Health   *handlers.HealthHandler
	Verifier middleware.TokenVerifier
}

// NewRouter builds the gin engine. Listing and every mutation require a
// bearer token; login, health and the slug lookups are public.
func NewRouter(h Handlers, allowedOrigins []string, l *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(l))
	router.Use(middleware.CORSMiddleware(allowedOrigins))

	// Health check
	router.GET("/", h.Health.Liveness)
	router.GET("/health", h.Health.Readiness)

	router.POST("/login", h.Auth.Login)

	// Public routes
	router.GET("/patients/:slug", h.Patients.GetPatient)
	router.GET("/patients/:slug/qrcode", h.Patients.GetPatientQRCode)

	// Protected routes
	admin := router.Group("/")
	admin.Use(middleware.AuthMiddleware(h.Verifier))
	{
		admin.GET("/auth/verify", h.Auth.VerifyToken)
		admin.POST("/patients", h.Patients.CreatePatient)
		admin.GET("/patients", h.Patients.ListPatients)
		admin.PUT("/patients/:slug", h.Patients.UpdatePatient)
		admin.DELETE("/patients/:id", h.Patients.DeletePatient)
	}

	return router
}
