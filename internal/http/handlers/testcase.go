package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/casegen-backend/internal/http/response"
	"github.com/yungbote/casegen-backend/internal/platform/apierr"
	"github.com/yungbote/casegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/services"
	"github.com/yungbote/casegen-backend/internal/testgen"
)

type TestcaseHandler struct {
	log  *logger.Logger
	gen  services.GenerationService
	jira services.JiraService
}

func NewTestcaseHandler(log *logger.Logger, gen services.GenerationService, jira services.JiraService) *TestcaseHandler {
	return &TestcaseHandler{log: log.With("handler", "TestcaseHandler"), gen: gen, jira: jira}
}

type createRequest struct {
	SelectedRequirements []string `json:"selectedRequirements"`
	SelectedStandards    []string `json:"selectedStandards"`
	PromptOverride       string   `json:"promptOverride"`
}

type overrideRequest struct {
	SelectedStandards []string `json:"selectedStandards"`
	PromptOverride    string   `json:"promptOverride"`
}

// POST /testcases
func (h *TestcaseHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, apierr.BadRequest("invalid_body", "%v", err))
		return
	}
	results, err := h.gen.Create(c.Request.Context(), ctxutil.UserID(c.Request.Context()), services.CreateInput{
		RequirementIDs: req.SelectedRequirements,
		StandardNames:  req.SelectedStandards,
		PromptOverride: req.PromptOverride,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	ok := len(results) > 0
	for _, r := range results {
		ok = ok && r.Success
	}
	response.RespondOK(c, gin.H{"success": ok, "results": results})
}

// GET /generated
func (h *TestcaseHandler) ListGenerated(c *gin.Context) {
	list, err := h.gen.List(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /generated/:genId
func (h *TestcaseHandler) GetGenerated(c *gin.Context) {
	set, err := h.gen.Get(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("genId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, set)
}

// GET /generated/requirement/:id
func (h *TestcaseHandler) RequirementTestcases(c *gin.Context) {
	tcs, err := h.gen.Testcases(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, tcs)
}

// POST /testcases/:genId/regenerate/:tcId
func (h *TestcaseHandler) RegenerateTestcase(c *gin.Context) {
	var req overrideRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	tc, err := h.gen.RegenerateTestcase(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("genId"), c.Param("tcId"), req.PromptOverride)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "testcase": tc})
}

// POST /requirements/:reqId/regenerate
func (h *TestcaseHandler) RegenerateRequirement(c *gin.Context) {
	var req overrideRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.gen.RegenerateRequirement(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("reqId"), req.SelectedStandards, req.PromptOverride)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":          true,
		"genId":            res.GenID,
		"count":            res.Count,
		"requirementId":    res.RequirementID,
		"requirementTitle": res.RequirementTitle,
	})
}

// PATCH /testcases/:genId/:tcId
func (h *TestcaseHandler) Patch(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apierr.BadRequest("invalid_body", "%v", err))
		return
	}
	patch := make(map[string]any, len(body))
	for _, k := range testgen.PatchableFields {
		if v, ok := body[k]; ok {
			patch[k] = v
		}
	}
	if len(patch) == 0 {
		response.RespondErr(c, apierr.BadRequest("empty_patch", "patch must contain at least one of %v", testgen.PatchableFields))
		return
	}
	tc, err := h.gen.Patch(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("genId"), c.Param("tcId"), patch)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "testcase": tc})
}

// POST /testcases/:genId/:tcId/jira
func (h *TestcaseHandler) Jira(c *gin.Context) {
	res, err := h.jira.Mirror(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("genId"), c.Param("tcId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "jira": res})
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, out any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(out); err != nil {
		response.RespondErr(c, apierr.BadRequest("invalid_body", "%v", err))
		return false
	}
	return true
}
