// Package api serves a read-only HTTP view of the document store for the daemon's
// management endpoint. Writes go through the application services only, so the
// audit log cannot be bypassed from here.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/granjapro/granja/pkg/docstore"
)

type Handler struct {
	Store docstore.Store
}

// Register mounts the browse routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/collections", h.GetCollections)
	r.GET("/collections/:collection", h.GetCollection)
	r.GET("/collections/:collection/:id", h.GetDocument)
}

func (h *Handler) GetCollections(c *gin.Context) {
	list, err := h.Store.Collections()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetCollection(c *gin.Context) {
	docs, err := h.Store.List(c.Param("collection"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.Store.Get(c.Param("collection"), c.Param("id"))
	if errors.Is(err, docstore.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, json.RawMessage(doc))
}
