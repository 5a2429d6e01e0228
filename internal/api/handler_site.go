package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webshell-backend/internal/catalog"
	"webshell-backend/internal/store"
)

type siteIDQuery struct {
	ID int64 `form:"id" binding:"required,min=1"`
}

type addSiteRequest struct {
	URL     string  `json:"url" binding:"required"`
	Title   string  `json:"title" binding:"required"`
	Favicon *string `json:"favicon"`
}

type updateSiteRequest struct {
	ID      int64   `json:"id" binding:"required,min=1"`
	URL     *string `json:"url"`
	Title   *string `json:"title"`
	Favicon *string `json:"favicon"`
}

type deleteSiteRequest struct {
	ID int64 `json:"id" binding:"required,min=1"`
}

// ListSites handles GET /api/site.list.
func (h *Handler) ListSites(c *gin.Context) {
	c.JSON(http.StatusOK, h.Sites.List(c.Request.Context()))
}

// GetSite handles GET /api/site.get?id=.
func (h *Handler) GetSite(c *gin.Context) {
	var q siteIDQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, err := h.Sites.Get(c.Request.Context(), q.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// AddSite handles POST /api/site.add.
func (h *Handler) AddSite(c *gin.Context) {
	var req addSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, sent, err := h.Sites.Add(c.Request.Context(), catalog.NewSite{
		URL:     req.URL,
		Title:   req.Title,
		Favicon: req.Favicon,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": site.ID, "notificationsSent": sent})
}

// UpdateSite handles POST /api/site.update.
func (h *Handler) UpdateSite(c *gin.Context) {
	var req updateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Sites.Update(c.Request.Context(), req.ID, store.SitePatch{
		URL:     req.URL,
		Title:   req.Title,
		Favicon: req.Favicon,
	}); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteSite handles POST /api/site.delete.
func (h *Handler) DeleteSite(c *gin.Context) {
	var req deleteSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Sites.Delete(c.Request.Context(), req.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
