package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// SystemHandler serves health and route introspection.
type SystemHandler struct {
	Origin string
	Router *gin.Engine
}

// GET /health
func (h SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "origin": h.Origin})
}

// GET /api/routes, registered outside release mode only.
func (h SystemHandler) Routes(c *gin.Context) {
	if h.Router == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}

	routes := h.Router.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
