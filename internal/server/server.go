package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/law52525/StardewSeedSearcher/internal/models"
	"github.com/law52525/StardewSeedSearcher/internal/searcher"
	"github.com/law52525/StardewSeedSearcher/internal/weather"
	"github.com/law52525/StardewSeedSearcher/pkg/search/factory"
)

// Server wires the HTTP API, the WebSocket hub and the search driver.
type Server struct {
	driver  *searcher.Driver
	factory *factory.Factory
	hub     *Hub
	log     *zap.Logger

	upgrader websocket.Upgrader
}

// New creates a server around an initialized driver and hub.
func New(driver *searcher.Driver, f *factory.Factory, hub *Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		driver:  driver,
		factory: f,
		hub:     hub,
		log:     log,
		upgrader: websocket.Upgrader{
			// The frontend is a local file opened in a browser; accept any
			// origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin router with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/", s.handleRoot)
	router.GET("/ws", s.handleWebSocket)

	api := router.Group("/api")
	{
		api.POST("/search", s.handleSearch)
		api.GET("/health", s.handleHealth)
		api.GET("/engine-info", s.handleEngineInfo)
		api.GET("/weather-detail", s.handleWeatherDetail)
	}

	return router
}

// corsMiddleware allows the static HTML shell to call the API from any
// origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// handleSearch validates the request and launches the run in the background.
// The result stream arrives over the WebSocket, not this response.
func (s *Server) handleSearch(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s.log.Info("search request accepted",
		zap.Int64("start_seed", req.StartSeed),
		zap.Int64("end_seed", req.EndSeed),
		zap.Int("conditions", len(req.Conditions)))

	go s.driver.Run(context.Background(), req)

	c.JSON(http.StatusOK, gin.H{"message": "Search started."})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0"})
}

func (s *Server) handleEngineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.factory.Report())
}

// handleWeatherDetail decodes the full first-year weather of a single seed.
// Diagnostic endpoint; the search itself never calls it.
func (s *Server) handleWeatherDetail(c *gin.Context) {
	seed, err := strconv.ParseInt(c.Query("seed"), 10, 64)
	if err != nil || seed < 0 || seed > models.MaxSeed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "seed must be an integer in [0, 2147483647]"})
		return
	}
	legacy := c.Query("useLegacyRandom") == "true"

	predictor := weather.NewPredictor()
	c.JSON(http.StatusOK, predictor.Detail(int32(seed), legacy))
}

// handleWebSocket upgrades the connection and keeps it registered until the
// client goes away. Incoming messages are read and discarded to service
// control frames.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.hub.Add(conn)
	defer s.hub.Remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, indexHTML)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset='utf-8'>
    <title>Stardew Seed Searcher API</title>
    <style>
        body {
            font-family: 'Segoe UI', sans-serif;
            max-width: 600px;
            margin: 50px auto;
            padding: 20px;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
        }
        .card {
            background: white;
            color: #333;
            border-radius: 12px;
            padding: 30px;
            box-shadow: 0 10px 40px rgba(0,0,0,0.3);
        }
        h1 { margin-top: 0; color: #667eea; }
        .status { color: #4caf50; font-weight: bold; }
        code { background: #f5f5f5; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <div class='card'>
        <h1>Stardew Seed Searcher API</h1>
        <p>The server is <span class='status'>running</span>.</p>
        <p>Open <code>index.html</code> to start searching.</p>
        <hr style='margin: 20px 0; border: none; border-top: 1px solid #eee;'>
        <p style='color: #666; font-size: 0.9em; margin: 0;'>
            POST <code>/api/search</code> | GET <code>/api/health</code><br>
            WebSocket: <code>/ws</code>
        </p>
    </div>
</body>
</html>`
