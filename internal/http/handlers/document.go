package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

const maxDocumentBytes = 25 << 20

type DocumentHandler struct {
	documents services.DocumentService
}

func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// GET /api/enrollments/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	docs, err := h.documents.List(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "list_documents_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// POST /api/enrollments/:id/documents (multipart: file, document_type, uploaded_by)
func (h *DocumentHandler) Upload(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()

	doc, err := h.documents.Upload(c.Request.Context(), services.DocumentUpload{
		EnrollmentID: id,
		FileName:     fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		DocumentType: c.PostForm("document_type"),
		UploadedBy:   c.PostForm("uploaded_by"),
		Body:         f,
	})
	if err != nil {
		response.RespondServiceError(c, "upload_document_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_document_id")
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, "delete_document_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
