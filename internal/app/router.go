package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/school-timetable-go/internal/circolari"
	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/logger"
	"github.com/garyellow/school-timetable-go/internal/metrics"
	"github.com/garyellow/school-timetable-go/internal/seed"
	"github.com/garyellow/school-timetable-go/internal/sentry"
	"github.com/garyellow/school-timetable-go/internal/storage"
)

const readinessCheckTimeout = 3 * time.Second

// Client-facing messages. The frontend matches on them.
const (
	msgRunning          = "School timetable API is running!"
	msgClassIDRequired  = "classId is required as a query parameter."
	msgNoLessons        = "No lessons found for the provided classId."
	msgScheduleFailed   = "Failed to retrieve schedule due to an internal server error."
	msgClassesFailed    = "Failed to fetch classes"
	msgCircolariFailed  = "Failed to fetch circolari"
	defaultMetricsRealm = "metrics"
)

// NoticeLister returns the current school notices.
type NoticeLister interface {
	List(ctx context.Context) ([]circolari.Circolare, error)
}

// API holds the collaborators of the HTTP handlers.
type API struct {
	Reader    storage.ScheduleReader
	Notices   NoticeLister // nil disables /api/circolari
	Readiness *seed.ReadinessState
	Logger    *logger.Logger
}

// RouterConfig holds the cross-cutting settings of the router.
type RouterConfig struct {
	FrontendOrigin  string // empty disables CORS
	MetricsUsername string
	MetricsPassword string               // empty leaves /metrics open
	Registry        *prometheus.Registry // nil disables /metrics
	Metrics         *metrics.Metrics     // optional request metrics
	Sentry          bool
}

// NewRouter builds the gin engine serving the read API.
func NewRouter(api *API, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Sentry {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestIDMiddleware())
	router.Use(corsMiddleware(cfg.FrontendOrigin))
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(api.Logger))
	if cfg.Metrics != nil {
		router.Use(metricsMiddleware(cfg.Metrics))
	}

	router.GET("/", api.root)
	router.GET("/healthz", api.livenessCheck)
	router.HEAD("/healthz", api.livenessCheck)
	router.GET("/readyz", api.readinessCheck)
	router.HEAD("/readyz", api.readinessCheck)

	group := router.Group("/api")
	group.GET("/classes", api.listClasses)
	group.GET("/schedule", api.getSchedule)
	if api.Notices != nil {
		group.GET("/circolari", api.listCircolari)
	}

	if cfg.Registry != nil {
		router.GET("/metrics",
			basicAuthMiddleware(defaultMetricsRealm, cfg.MetricsUsername, cfg.MetricsPassword),
			gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	return router
}

func (a *API) root(c *gin.Context) {
	c.String(http.StatusOK, msgRunning)
}

func (a *API) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *API) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessCheckTimeout)
	defer cancel()

	if a.Readiness != nil && !a.Readiness.IsReady() {
		status := a.Readiness.Status()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": status.Reason,
			"progress": gin.H{
				"elapsed_seconds": status.ElapsedSeconds,
				"timeout_seconds": status.TimeoutSeconds,
			},
		})
		return
	}

	if err := a.Reader.Ping(ctx); err != nil {
		a.Logger.WithError(err).WarnContext(ctx, "Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	body := gin.H{
		"status":   "ready",
		"database": "connected",
	}
	if counts, err := a.Reader.Counts(ctx); err == nil {
		body["data"] = counts
	} else {
		a.Logger.WithError(err).WarnContext(ctx, "Failed to count rows for readiness")
	}
	if a.Readiness != nil {
		body["seeded"] = a.Readiness.SeedCompleted()
	}
	c.JSON(http.StatusOK, body)
}

// listClasses returns every class, or the classes matching ?q= when given.
func (a *API) listClasses(c *gin.Context) {
	ctx := c.Request.Context()
	wrapper := domerrors.NewWrapper("api", "list_classes")

	var (
		classes []storage.Class
		err     error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		classes, err = a.Reader.SearchClasses(ctx, q)
	} else {
		classes, err = a.Reader.ListClasses(ctx)
	}
	if err != nil {
		a.internalError(c, wrapper.Wrap(err, msgClassesFailed))
		return
	}
	if classes == nil {
		classes = []storage.Class{}
	}
	c.JSON(http.StatusOK, classes)
}

func (a *API) getSchedule(c *gin.Context) {
	ctx := c.Request.Context()
	classID := strings.TrimSpace(c.Query("classId"))
	if classID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgClassIDRequired})
		return
	}

	lessons, err := a.Reader.GetLessonsByClass(ctx, classID)
	switch {
	case domerrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"message": msgNoLessons})
	case err != nil:
		wrapper := domerrors.NewWrapper("api", "get_schedule")
		a.internalError(c, wrapper.Wrap(err, msgScheduleFailed))
	default:
		c.JSON(http.StatusOK, lessons)
	}
}

func (a *API) listCircolari(c *gin.Context) {
	notices, err := a.Notices.List(c.Request.Context())
	if err != nil {
		wrapper := domerrors.NewWrapper("circolari", "list")
		a.internalError(c, wrapper.Wrap(err, msgCircolariFailed))
		return
	}
	c.JSON(http.StatusOK, notices)
}

// internalError logs err, reports it to Sentry and answers 500 with the
// wrapped user message.
func (a *API) internalError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	a.Logger.WithError(err).ErrorContext(ctx, "Request failed")
	sentry.CaptureException(ctx, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": domerrors.GetUserMessage(err)})
}
