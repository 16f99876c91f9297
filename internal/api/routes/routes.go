package routes

import (
	"github.com/debanirmalya/hirebuddy/internal/api/handlers"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Candidate *handlers.CandidateHandler
	// Files is optional.
	Files *handlers.FilesHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", handlers.Health)

	cand := r.Group("/candidates")
	cand.POST("/upload", d.Candidate.Upload)
	cand.GET("", d.Candidate.List)
	cand.GET("/:id", d.Candidate.Get)
	cand.POST("/:id/request-documents", d.Candidate.RequestDocuments)
	cand.POST("/:id/submit-documents", d.Candidate.SubmitDocuments)
	cand.POST("/:id/follow-up", d.Candidate.RequestFollowup)
	cand.POST("/:id/reparse", d.Candidate.Reparse)
	cand.GET("/:id/extraction-audits", d.Candidate.ExtractionAudits)

	if d.Files != nil {
		r.GET("/uploads/*filepath", d.Files.Serve)
	}
}
