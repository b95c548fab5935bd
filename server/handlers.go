package server

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/javajack/sheetsync"
)

// importUserID stamps cells written through the CSV import endpoint, which
// has no session of its own.
const importUserID = "csv_import"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handlers bundles the route dependencies.
type handlers struct {
	hub    *Hub
	filter *sheetsync.Filter
	logger *slog.Logger
}

// registerRoutes wires all endpoints onto the router.
func (h *handlers) registerRoutes(router *gin.Engine, metrics *Metrics) {
	router.GET("/", h.root)
	router.GET("/ws", h.websocket)

	api := router.Group("/api")
	api.GET("/spreadsheet", h.getSpreadsheet)
	api.GET("/users", h.getUsers)
	api.POST("/spreadsheet/reset", h.resetSpreadsheet)
	api.POST("/spreadsheet/import", h.importCSV)
	api.GET("/spreadsheet/export", h.exportCSV)
	api.GET("/spreadsheet/export/xlsx", h.exportXLSX)
	api.GET("/cells", h.queryCells)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
}

func (h *handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "sheetsync API",
		"status":  "running",
	})
}

// websocket upgrades the connection and hands it to the hub. The client
// is only "connected" at this point; document access starts once it sends
// join_spreadsheet.
func (h *handlers) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	newClient(h.hub, conn).run()
}

func (h *handlers) getSpreadsheet(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Snapshot())
}

func (h *handlers) getUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Users())
}

func (h *handlers) resetSpreadsheet(c *gin.Context) {
	h.hub.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Spreadsheet reset successfully"})
}

type importRequest struct {
	CSVContent string `json:"csv_content" binding:"required"`
}

func (h *handlers) importCSV(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.hub.ImportCSV(req.CSVContent, importUserID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Spreadsheet imported successfully"})
}

func (h *handlers) exportCSV(c *gin.Context) {
	content, filename, err := h.hub.ExportCSV()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"csv_content": content,
		"filename":    filename,
	})
}

func (h *handlers) exportXLSX(c *gin.Context) {
	snap := h.hub.Snapshot()

	var buf bytes.Buffer
	if err := sheetsync.ExportXLSX(snap, &buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := sheetsync.ExportFilename(snap, "xlsx")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// queryCells evaluates an expr predicate against a snapshot, e.g.
// /api/cells?q=type=="number". The snapshot keeps slow or pathological
// predicates off the hub goroutine.
func (h *handlers) queryCells(c *gin.Context) {
	predicate := c.Query("q")
	if predicate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter: q"})
		return
	}

	matches, err := h.filter.Match(h.hub.Snapshot(), predicate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(matches),
		"cells": matches,
	})
}
