package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/casegen-backend/internal/http/response"
	"github.com/yungbote/casegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/services"
)

type RequirementHandler struct {
	log      *logger.Logger
	reqs     services.RequirementService
	maxBytes int64
}

func NewRequirementHandler(log *logger.Logger, reqs services.RequirementService, maxBytes int64) *RequirementHandler {
	return &RequirementHandler{log: log.With("handler", "RequirementHandler"), reqs: reqs, maxBytes: maxBytes}
}

type requirementView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	FileURI string `json:"fileUri"`
}

// POST /requirements/upload
func (h *RequirementHandler) Upload(c *gin.Context) {
	in, f, err := readUpload(c, h.maxBytes)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	defer f.Close()

	row, err := h.reqs.Upload(c.Request.Context(), ctxutil.UserID(c.Request.Context()), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"req_id": row.ReqID, "title": row.Title, "fileUri": row.FileURI})
}

// GET /requirements
func (h *RequirementHandler) List(c *gin.Context) {
	rows, err := h.reqs.List(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out := make(map[string]requirementView, len(rows))
	for _, r := range rows {
		out[r.ReqID] = requirementView{ID: r.ReqID, Title: r.Title, FileURI: r.FileURI}
	}
	response.RespondOK(c, out)
}
