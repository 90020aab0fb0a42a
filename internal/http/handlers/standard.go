package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/casegen-backend/internal/http/response"
	"github.com/yungbote/casegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/services"
)

type StandardHandler struct {
	log       *logger.Logger
	standards services.StandardService
	maxBytes  int64
}

func NewStandardHandler(log *logger.Logger, standards services.StandardService, maxBytes int64) *StandardHandler {
	return &StandardHandler{log: log.With("handler", "StandardHandler"), standards: standards, maxBytes: maxBytes}
}

type standardView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	FileURI string `json:"fileUri"`
}

// POST /upload
func (h *StandardHandler) Upload(c *gin.Context) {
	in, f, err := readUpload(c, h.maxBytes)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	defer f.Close()

	row, err := h.standards.Upload(c.Request.Context(), ctxutil.UserID(c.Request.Context()), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"name": row.Name, "fileUri": row.FileURI})
}

// GET /standards
func (h *StandardHandler) List(c *gin.Context) {
	rows, err := h.standards.List(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out := make(map[string]standardView, len(rows))
	for _, s := range rows {
		out[s.Name] = standardView{ID: s.Name, Name: s.Name, FileURI: s.FileURI}
	}
	response.RespondOK(c, out)
}
