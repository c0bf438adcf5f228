package transport

import (
	"bufio"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"shadowbench/internal/core"
	"shadowbench/internal/report"
)

// NewHTTPHandler serves the command channel over HTTP:
//
//	POST /commands   one command per body line, applied in order
//	GET  /results    report; ?format=text|json|csv
//	GET  /healthz    200 once the controller is ready
//	GET  /metrics    prometheus metrics from gatherer
func NewHTTPHandler(ctrl Controller, gatherer prometheus.Gatherer, log logrus.FieldLogger) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.POST("/commands", func(c *gin.Context) {
		applied := 0
		scanner := bufio.NewScanner(c.Request.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := ctrl.Dispatch(c.Request.Context(), line); err != nil {
				c.JSON(statusFor(err), gin.H{"applied": applied, "command": line, "error": err.Error()})
				return
			}
			applied++
		}
		if err := scanner.Err(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"applied": applied, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"applied": applied})
	})

	r.GET("/results", func(c *gin.Context) {
		format, err := report.ParseFormat(c.DefaultQuery("format", string(report.Text)))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Type", contentTypes[format])
		c.Status(http.StatusOK)
		_ = report.Write(c.Writer, format, ctrl.Snapshot())
	})

	r.GET("/healthz", func(c *gin.Context) {
		select {
		case <-ctrl.Ready():
			c.String(http.StatusOK, "ready\n")
		default:
			c.String(http.StatusServiceUnavailable, "not ready\n")
		}
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}

var contentTypes = map[report.Format]string{
	report.Text: "text/plain; charset=utf-8",
	report.JSON: "application/json",
	report.CSV:  "text/csv",
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotEnabled):
		return http.StatusConflict
	case errors.Is(err, core.ErrModuleUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("http request")
	}
}
