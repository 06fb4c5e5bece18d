package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/licensing-crm-backend/internal/clients/gcp"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type DocumentUpload struct {
	EnrollmentID uint
	FileName     string
	MimeType     string
	Size         int64
	DocumentType string
	UploadedBy   string
	Body         io.Reader
}

type DocumentService interface {
	Upload(ctx context.Context, in DocumentUpload) (*crm.EnrollmentDocument, error)
	List(ctx context.Context, enrollmentID uint) ([]*crm.EnrollmentDocument, error)
	Delete(ctx context.Context, id uint) error
}

type documentService struct {
	log         *logger.Logger
	enrollments repos.EnrollmentRepo
	documents   repos.DocumentRepo
	bucket      gcp.BucketService
}

// NewDocumentService accepts a nil bucket; uploads then keep metadata only.
func NewDocumentService(log *logger.Logger, enrollments repos.EnrollmentRepo, documents repos.DocumentRepo, bucket gcp.BucketService) DocumentService {
	return &documentService{
		log:         log.With("service", "DocumentService"),
		enrollments: enrollments,
		documents:   documents,
		bucket:      bucket,
	}
}

func documentKey(enrollmentID uint, fileName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return fmt.Sprintf("enrollments/%d/%s-%s", enrollmentID, uuid.NewString(), name)
}

func (s *documentService) Upload(ctx context.Context, in DocumentUpload) (*crm.EnrollmentDocument, error) {
	if strings.TrimSpace(in.FileName) == "" {
		return nil, badRequest("invalid_file", fmt.Errorf("file name required"))
	}
	dbc := dbctx.From(ctx)
	e, err := s.enrollments.GetByID(dbc, in.EnrollmentID)
	if err != nil {
		return nil, internal("enrollment_lookup_failed", err)
	}
	if e == nil {
		return nil, notFound("enrollment_not_found", "enrollment")
	}
	doc := &crm.EnrollmentDocument{
		EnrollmentID: e.ID,
		FileName:     strings.TrimSpace(in.FileName),
		FileSize:     in.Size,
		MimeType:     in.MimeType,
		DocumentType: strings.TrimSpace(in.DocumentType),
		UploadedBy:   in.UploadedBy,
		Status:       crm.DocumentPending,
	}
	if doc.DocumentType == "" {
		doc.DocumentType = crm.DocumentOther
	}
	if s.bucket != nil && in.Body != nil {
		key := documentKey(e.ID, doc.FileName)
		if doc.MimeType == "" {
			doc.MimeType = gcp.ContentTypeForKey(key)
		}
		if err := s.bucket.UploadFile(dbc, key, doc.MimeType, in.Body); err != nil {
			return nil, apiBadGateway("document_upload_failed", err)
		}
		doc.StoragePath = key
	}
	if err := s.documents.Create(dbc, doc); err != nil {
		if doc.StoragePath != "" {
			if delErr := s.bucket.DeleteFile(dbc, doc.StoragePath); delErr != nil {
				s.log.Warn("orphaned document object", "key", doc.StoragePath, "error", delErr)
			}
		}
		return nil, internal("document_create_failed", err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, enrollmentID uint) ([]*crm.EnrollmentDocument, error) {
	e, err := s.enrollments.GetByID(dbctx.From(ctx), enrollmentID)
	if err != nil {
		return nil, internal("enrollment_lookup_failed", err)
	}
	if e == nil {
		return nil, notFound("enrollment_not_found", "enrollment")
	}
	out, err := s.documents.ListByEnrollment(dbctx.From(ctx), enrollmentID)
	if err != nil {
		return nil, internal("document_list_failed", err)
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, id uint) error {
	dbc := dbctx.From(ctx)
	doc, err := s.documents.GetByID(dbc, id)
	if err != nil {
		return internal("document_lookup_failed", err)
	}
	if doc == nil {
		return notFound("document_not_found", "document")
	}
	if err := s.documents.Delete(dbc, id); err != nil {
		return internal("document_delete_failed", err)
	}
	if s.bucket != nil && doc.StoragePath != "" {
		if err := s.bucket.DeleteFile(dbc, doc.StoragePath); err != nil {
			s.log.Warn("document object delete failed", "key", doc.StoragePath, "error", err)
		}
	}
	return nil
}
