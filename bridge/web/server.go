// Package web is a reference host runtime for the billing bridge: host
// calls arrive as HTTP POSTs and stay pending until the provider callback
// settles them, and purchaseStateChanged events fan out over SSE.
package web

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/model"
)

// Dispatcher routes a named host call to a billing operation, reporting
// false for an unknown method.
type Dispatcher interface {
	Dispatch(method string, call bridge.Call) bool
}

// Server serves the bridge surface over HTTP.
type Server struct {
	log         *zap.Logger
	dispatcher  Dispatcher
	hub         *EventHub
	callTimeout time.Duration
	engine      *gin.Engine
}

func NewServer(
	log *zap.Logger,
	dispatcher Dispatcher,
	hub *EventHub,
	metrics *Metrics,
	gatherer prometheus.Gatherer,
	callTimeout time.Duration,
) *Server {
	s := &Server{
		log:         log,
		dispatcher:  dispatcher,
		hub:         hub,
		callTimeout: callTimeout,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}

	engine.POST("/v1/bridge/:method", s.handleCall)
	engine.GET("/v1/events", s.handleEvents)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	s.engine = engine
	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleCall(c *gin.Context) {
	method := c.Param("method")

	var options model.Object
	if err := c.ShouldBindJSON(&options); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"message": "malformed call options: " + err.Error()},
		})
		return
	}

	call := newHTTPCall(options)
	if !s.dispatcher.Dispatch(method, call) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"message": "unknown method: " + method},
		})
		return
	}

	select {
	case o := <-call.Done():
		if o.rejected {
			body := gin.H{"message": o.message}
			if o.code != "" {
				body["code"] = o.code
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": body})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": o.data})
	case <-time.After(s.callTimeout):
		s.log.Warn("Bridge call timed out", zap.String("method", method))
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": gin.H{"message": "call did not settle in time"},
		})
	}
}

func (s *Server) handleEvents(c *gin.Context) {
	stream, cancel := s.hub.Subscribe()
	defer cancel()

	s.log.Debug("Event subscriber connected", zap.String("stream_id", stream.ID()))

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-stream.Channel():
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	s.log.Debug("Event subscriber disconnected", zap.String("stream_id", stream.ID()))
}
