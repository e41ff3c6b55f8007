// Short-code resolution handler.
//
// GET /resolve?code=… maps an 8-character short code to the owning form's
// public page and answers with a redirect, mirroring what a printed QR code
// or short link does when scanned.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tuneconnect/tuneconnect-backend/internal/id"
)

const notFoundPath = "/not-found"

// Resolve handles GET /resolve?code=….
//
// Valid codes redirect (302) to /u/<slug>?id=<code>. Missing, malformed,
// unknown, and expired codes all redirect to the not-found page; scanners
// never learn which case they hit.
func (h *FormHandlers) Resolve(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		c.Redirect(http.StatusFound, h.baseURL+notFoundPath)
		return
	}

	slug, err := h.formSvc.Resolve(c.Request.Context(), code)
	if err != nil {
		c.Redirect(http.StatusFound, h.baseURL+notFoundPath)
		return
	}

	normalized, _ := id.Normalize(code)
	c.Redirect(http.StatusFound, h.baseURL+"/u/"+slug+"?id="+normalized)
}
