// Package api is the HTTP surface: request validation, dispatch to
// the engine, and mapping of extraction failures onto status codes.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/zxc05896/snap-engine/pkg/config"
	"github.com/zxc05896/snap-engine/pkg/extractor"
	"github.com/zxc05896/snap-engine/pkg/models"
	"github.com/zxc05896/snap-engine/pkg/pool"
)

const engineName = "snap-engine/2.0"

// VideoService is what the handlers need from the engine.
type VideoService interface {
	Extract(ctx context.Context, req models.ExtractionRequest) (*models.VideoSummary, error)
}

// Server owns the router and the process-level request limiter.
type Server struct {
	cfg     *config.Config
	svc     VideoService
	limiter *rate.Limiter
	started time.Time
}

// NewServer wires the handlers. started is the process start time,
// used only for uptime reporting.
func NewServer(cfg *config.Config, svc VideoService, started time.Time) *Server {
	return &Server{
		cfg:     cfg,
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		started: started,
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger(), Recovery(), CORS())

	r.GET("/", s.handleHealth)
	r.GET("/api/v1/status", s.handleStatus)
	r.POST("/api/v1/extract", RateLimit(s.limiter), s.handleExtract)

	return r
}

// handleHealth serves the load-balancer probe. It touches nothing but
// process counters, so it stays alive even when extraction is down.
func (s *Server) handleHealth(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"status":          "operational",
		"engine":          engineName,
		"cores_utilized":  s.cfg.Workers,
		"memory_usage_mb": roundMB(mem.Alloc),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"status":         "active",
		"uptime":         time.Since(s.started).Round(time.Second).Seconds(),
		"workers_active": s.cfg.Workers,
		"memory_usage":   fmt.Sprintf("%.2f MB", roundMB(mem.Alloc)),
	})
}

func (s *Server) handleExtract(c *gin.Context) {
	var req models.ExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "URL cannot be empty"})
		return
	}
	if u, err := url.ParseRequestURI(req.URL); err != nil || u.Scheme == "" || u.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "URL is not valid"})
		return
	}
	logUnfamiliarHost(req.URL)

	ctx := c.Request.Context()
	if s.cfg.RequestTimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.RequestTimeoutSec)*time.Second)
		defer cancel()
	}

	summary, err := s.svc.Extract(ctx, req)
	if err != nil {
		s.writeExtractionError(c, req.URL, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// writeExtractionError performs the final error-to-status mapping.
// Messages stay short and never carry stack detail.
func (s *Server) writeExtractionError(c *gin.Context, url string, err error) {
	id := c.GetString(requestIDKey)

	var exErr *extractor.Error
	switch {
	case errors.Is(err, pool.ErrSaturated):
		slog.Warn("extraction rejected, pool saturated", "id", id, "url", url)
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": "Server busy, please try again later."})

	case errors.Is(err, pool.ErrClosed):
		slog.Warn("extraction rejected, shutting down", "id", id, "url", url)
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Server is shutting down."})

	case errors.As(err, &exErr):
		switch exErr.Kind {
		case extractor.KindUnavailable:
			slog.Warn("content unavailable", "id", id, "url", url, "msg", exErr.Message)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Video is private or age-restricted."})
		case extractor.KindRateLimited:
			slog.Warn("upstream rate limit", "id", id, "url", url, "msg", exErr.Message)
			c.JSON(http.StatusTooManyRequests, gin.H{"detail": "Server is currently rate-limited by the source site."})
		default:
			slog.Error("engine failure", "id", id, "url", url, "msg", exErr.Message)
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Could not process video: " + exErr.Message})
		}

	default:
		slog.Error("unclassified extraction failure", "id", id, "url", url, "msg", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
	}
}

// Hosts the upstream extractor is known to handle well. Anything else
// still gets attempted; the log line just helps triage failures.
var familiarHosts = []string{"youtube", "youtu.be", "facebook", "instagram"}

func logUnfamiliarHost(url string) {
	for _, h := range familiarHosts {
		if strings.Contains(url, h) {
			return
		}
	}
	slog.Debug("URL host not in the familiar list, attempting anyway", "url", url)
}

func roundMB(bytes uint64) float64 {
	mb := float64(bytes) / 1024 / 1024
	return float64(int(mb*100)) / 100
}
