package handlers

import "github.com/gin-gonic/gin"

func (h HandlerSet) LegalDocument(c *gin.Context) {
	doc := c.Param("doc")
	text, err := h.legal.Document(c.Request.Context(), doc)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"document": doc, "text": text})
}
