package api

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/denster32/health-insights/services/insights/common"
	"github.com/denster32/health-insights/services/insights/engine"
	"github.com/gin-gonic/gin"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("api")

const maxImportBodyBytes = 32 << 20 // 32MB health exports

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	engine         Engine
	writer         SampleWriter
	importer       Importer
	serviceKey     string
	listenAddr     string
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	ListenAddress  string
	Engine         Engine
	Writer         SampleWriter
	Importer       Importer
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Engine) {
		return nil, errors.New("engine is required")
	}
	if check.IfNil(args.Writer) {
		return nil, errors.New("sample writer is required")
	}
	if check.IfNil(args.Importer) {
		return nil, errors.New("importer is required")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		engine:         args.Engine,
		writer:         args.Writer,
		importer:       args.Importer,
		serviceKey:     args.ServiceKeyApi,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")

	// Ingestion endpoints
	api.POST("/samples", s.authAPIKey(), s.handleIngestSamples)
	api.POST("/import", s.authAPIKey(), s.handleImport)

	// Chart-facing query endpoints
	api.GET("/series", s.handleGetSeries)
	api.GET("/metrics", s.handleGetMetrics)
	api.GET("/stats", s.handleGetStats)
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CORSMiddleware allows the chart frontend to be served from another origin
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Api-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// --- Handlers ---

func (s *server) handleIngestSamples(c *gin.Context) {
	var payload common.IngestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(payload.Samples) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty samples batch"})
		return
	}

	log.Debug("received samples", "sender", c.Request.RemoteAddr, "count", len(payload.Samples))

	err := s.writer.InsertSamples(c.Request.Context(), payload.Samples)
	if err != nil {
		log.Warn("failed to insert samples", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "ingested": len(payload.Samples)})
}

func (s *server) handleImport(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	count, err := s.importer.ImportJSON(c.Request.Context(), body)
	if err != nil {
		log.Warn("import failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "imported": count})
}

func (s *server) handleGetSeries(c *gin.Context) {
	metricIDs := splitMetricIDs(c.Query("metrics"))
	if len(metricIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'metrics' query parameter"})
		return
	}

	from, err := strconv.ParseInt(c.Query("from"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' query parameter"})
		return
	}
	to, err := strconv.ParseInt(c.Query("to"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' query parameter"})
		return
	}

	result, err := s.engine.AggregateHistoricalData(c.Request.Context(), metricIDs, from, to)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, engine.ErrUnknownMetric), errors.Is(err, engine.ErrInvalidRange):
			status = http.StatusBadRequest
		case errors.Is(err, engine.ErrDataSourceUnavailable):
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toSeriesPayload(result))
}

func (s *server) handleGetMetrics(c *gin.Context) {
	definitions := s.engine.Definitions()

	out := make([]common.MetricInfoPayload, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, common.MetricInfoPayload{
			ID:          d.ID,
			DisplayUnit: d.DisplayUnit,
			Reduction:   string(d.Reduction),
			MinValid:    d.MinValid,
			MaxValid:    d.MaxValid,
		})
	}

	c.JSON(http.StatusOK, gin.H{"metrics": out})
}

func (s *server) handleGetStats(c *gin.Context) {
	stats := s.engine.CacheStats()

	c.JSON(http.StatusOK, common.CacheStatsPayload{
		Size:     stats.Size,
		Capacity: stats.Capacity,
		Hits:     stats.Hits,
		Misses:   stats.Misses,
	})
}

func splitMetricIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if len(trimmed) > 0 {
			ids = append(ids, trimmed)
		}
	}

	return ids
}

func toSeriesPayload(result engine.SeriesResult) common.SeriesPayload {
	payload := common.SeriesPayload{
		Series: make(map[string][]common.PointPayload, len(result)),
	}
	for metricID, series := range result {
		points := make([]common.PointPayload, 0, len(series))
		for _, point := range series {
			pp := common.PointPayload{
				BucketStart: point.BucketStart,
				SampleCount: point.SampleCount,
			}
			if point.HasValue {
				value := point.Value
				pp.Value = &value
			}
			points = append(points, pp)
		}
		payload.Series[metricID] = points
	}

	return payload
}
