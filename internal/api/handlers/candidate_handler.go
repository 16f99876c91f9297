package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/services"
	"github.com/debanirmalya/hirebuddy/internal/utils"
	"github.com/gin-gonic/gin"
)

type CandidateHandler struct {
	svc       services.CandidateService
	audits    services.AuditService
	maxUpload int64
}

// NewCandidateHandler rejects files larger than maxUpload bytes. audits may
// be nil.
func NewCandidateHandler(svc services.CandidateService, audits services.AuditService, maxUpload int64) *CandidateHandler {
	if maxUpload <= 0 {
		maxUpload = 16 << 20
	}
	return &CandidateHandler{svc: svc, audits: audits, maxUpload: maxUpload}
}

type uploadForm struct {
	Name        string `form:"name" binding:"required"`
	Email       string `form:"email" binding:"required,email"`
	CurrCompany string `form:"curr_company" binding:"required"`
}

type pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

type acceptedResponse struct {
	Message     string        `json:"message"`
	CandidateID string        `json:"candidate_id"`
	Status      models.Status `json:"status"`
}

func (h *CandidateHandler) Upload(c *gin.Context) {
	const op = "CandidateHandler.Upload"

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "name, a valid email and curr_company are required", err))
		return
	}

	if err := h.checkFile(fh, services.ResumeExtensions); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, err.Error(), nil))
		return
	}

	body, contentType, err := openSniffed(fh)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer body.Close()

	if utils.Ext(fh.Filename) == "pdf" && contentType != "application/pdf" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid content type (must be pdf)", nil))
		return
	}

	cand, err := h.svc.Create(c.Request.Context(), services.CreateCandidateInput{
		Name:        form.Name,
		Email:       form.Email,
		CurrCompany: form.CurrCompany,
		Filename:    fh.Filename,
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, acceptedResponse{
		Message:     "Resume uploaded successfully, parsing in background",
		CandidateID: cand.ID,
		Status:      cand.Status,
	})
}

func (h *CandidateHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), services.ListCandidatesInput{
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", services.DefaultPerPage),
		Status:  c.Query("status"),
		Skill:   c.Query("skill"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	items := page.Items
	if items == nil {
		items = []models.Candidate{}
	}
	c.JSON(http.StatusOK, gin.H{
		"candidates": items,
		"pagination": pagination{
			Page:    page.Page,
			PerPage: page.PerPage,
			Total:   page.Total,
			Pages:   page.Pages,
		},
	})
}

func (h *CandidateHandler) Get(c *gin.Context) {
	cand, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidate": cand})
}

func (h *CandidateHandler) RequestDocuments(c *gin.Context) {
	cand, err := h.svc.RequestDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, acceptedResponse{
		Message:     "Document request task started",
		CandidateID: cand.ID,
		Status:      cand.Status,
	})
}

func (h *CandidateHandler) RequestFollowup(c *gin.Context) {
	cand, err := h.svc.RequestFollowup(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, acceptedResponse{
		Message:     "Follow-up task started",
		CandidateID: cand.ID,
		Status:      cand.Status,
	})
}

func (h *CandidateHandler) Reparse(c *gin.Context) {
	cand, err := h.svc.Reparse(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, acceptedResponse{
		Message:     "Resume parsing restarted",
		CandidateID: cand.ID,
		Status:      cand.Status,
	})
}

func (h *CandidateHandler) SubmitDocuments(c *gin.Context) {
	const op = "CandidateHandler.SubmitDocuments"

	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "multipart form expected", err))
		return
	}
	files := append(form.File["files"], form.File["files[]"]...)
	types := append(form.Value["types"], form.Value["types[]"]...)
	if len(files) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "No files provided", nil))
		return
	}
	if len(files) != len(types) {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "Number of files must match number of document types", nil))
		return
	}

	uploads := make([]services.DocumentUpload, 0, len(files))
	for i, fh := range files {
		if err := h.checkFile(fh, services.DocumentExtensions); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("%s: %v", types[i], err), nil))
			return
		}
		body, contentType, err := openSniffed(fh)
		if err != nil {
			writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
			return
		}
		defer body.Close()

		uploads = append(uploads, services.DocumentUpload{
			Type:        types[i],
			Filename:    fh.Filename,
			ContentType: contentType,
			Body:        body,
		})
	}

	res, err := h.svc.SubmitDocuments(c.Request.Context(), c.Param("id"), uploads)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Documents uploaded successfully",
		"uploaded": res.Uploaded,
		"status":   res.Candidate.Status,
	})
}

func (h *CandidateHandler) ExtractionAudits(c *gin.Context) {
	if h.audits == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "CandidateHandler.ExtractionAudits", "extraction audits are not enabled", nil))
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	out, err := h.audits.ListForCandidate(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": out})
}

func (h *CandidateHandler) checkFile(fh *multipart.FileHeader, allowed []string) error {
	if fh.Filename == "" {
		return errors.New("no file selected")
	}
	ext := utils.Ext(fh.Filename)
	ok := false
	for _, a := range allowed {
		if a == ext {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("file type .%s not allowed, allowed types: %v", ext, allowed)
	}
	if fh.Size <= 0 {
		return errors.New("file is empty")
	}
	if fh.Size > h.maxUpload {
		return fmt.Errorf("file too large (max %dMB)", h.maxUpload>>20)
	}
	return nil
}
