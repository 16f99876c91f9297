package handlers

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/storage"
	"github.com/debanirmalya/hirebuddy/internal/utils"
	"github.com/gin-gonic/gin"
)

// FilesHandler serves stored uploads. Local files are streamed from root;
// with a Signer the client is redirected to a short-lived URL instead.
type FilesHandler struct {
	root   string
	signer storage.Signer
	ttl    time.Duration
}

func NewLocalFilesHandler(root string) *FilesHandler {
	return &FilesHandler{root: root}
}

func NewSignedFilesHandler(signer storage.Signer, ttl time.Duration) *FilesHandler {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &FilesHandler{signer: signer, ttl: ttl}
}

func (h *FilesHandler) Serve(c *gin.Context) {
	const op = "FilesHandler.Serve"

	rel := strings.TrimPrefix(path.Clean("/"+c.Param("filepath")), "/")
	if rel == "" || rel == "." {
		writeError(c, utils.E(utils.CodeNotFound, op, "file not found", nil))
		return
	}

	if h.signer != nil {
		url, err := h.signer.SignedGetURL(c.Request.Context(), rel, h.ttl)
		if err != nil {
			writeError(c, utils.E(utils.CodeUnavailable, op, "failed to sign file url", err))
			return
		}
		c.Redirect(http.StatusFound, url)
		return
	}

	c.File(filepath.Join(h.root, filepath.FromSlash(rel)))
}
