package usecase

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/optira-energie/comparateur-api/internal/entity"
)

const MaxUploadBytes = 10 << 20 // 10 MB

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// UploadFileUseCase attaches invoices and supporting documents to a
// prospect: blob write first, then an atomic list-append on the record.
type UploadFileUseCase struct {
	Repo    entity.ProspectRepositoryInterface
	Storage BlobStorageInterface
}

func NewUploadFileUseCase(repo entity.ProspectRepositoryInterface, storage BlobStorageInterface) *UploadFileUseCase {
	return &UploadFileUseCase{Repo: repo, Storage: storage}
}

type UploadFileInput struct {
	ProspectID string
	FileName   string
	MimeType   string
	Content    []byte
	Category   entity.DocumentCategory
	// Optional tag for the otherDocuments list (kbis, rib, ...).
	DocumentCategory string
}

// Execute validates size and type before any network call, stores the
// bytes under prospects/{id}/{category}/{fileId}_{name} and appends the
// descriptor to the matching list. A blob failure leaves the record
// untouched; a record failure after a successful write leaves an orphaned
// blob behind, which is accepted and not cleaned up.
func (uc *UploadFileUseCase) Execute(ctx context.Context, input UploadFileInput) (*entity.FileDescriptor, error) {
	if !input.Category.Valid() {
		return nil, &DomainError{Code: "INVALID_CATEGORY", Message: fmt.Sprintf("unknown document category %q", input.Category)}
	}
	if len(input.Content) == 0 {
		return nil, &DomainError{Code: "EMPTY_FILE", Message: "le fichier est vide"}
	}
	if len(input.Content) > MaxUploadBytes {
		return nil, &DomainError{Code: "FILE_TOO_LARGE", Message: "le fichier dépasse la taille maximale de 10 Mo"}
	}
	if !allowedMimeTypes[input.MimeType] {
		return nil, &DomainError{Code: "UNSUPPORTED_FILE_TYPE", Message: "seuls les fichiers PDF, JPEG et PNG sont acceptés"}
	}

	if _, err := uc.Repo.FindByID(ctx, input.ProspectID); err != nil {
		return nil, err
	}

	fileID := uuid.New().String()
	name := filepath.Base(input.FileName)
	path := fmt.Sprintf("prospects/%s/%s/%s_%s", input.ProspectID, input.Category, fileID, name)

	url, err := uc.Storage.Upload(ctx, path, input.Content, input.MimeType)
	if err != nil {
		return nil, &TechnicalError{Code: "STORAGE_ERROR", Message: "failed to store file: " + err.Error()}
	}

	fd := entity.FileDescriptor{
		ID:         fileID,
		FileName:   name,
		FileURL:    url,
		UploadedAt: time.Now(),
		FileSize:   int64(len(input.Content)),
		MimeType:   input.MimeType,
		Category:   input.DocumentCategory,
	}

	if err := uc.Repo.AppendDocument(ctx, input.ProspectID, input.Category, fd); err != nil {
		// Known limitation: the blob at `path` is now orphaned.
		log.Printf("descriptor append failed for %s, blob %s orphaned: %v", input.ProspectID, path, err)
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to record file: " + err.Error()}
	}

	return &fd, nil
}

// Delete removes the blob first, then exactly one descriptor by id. If the
// blob delete fails the record is left untouched; a dangling descriptor
// after a successful blob delete is the accepted lesser evil.
func (uc *UploadFileUseCase) Delete(ctx context.Context, prospectID string, category entity.DocumentCategory, fileID string) error {
	if !category.Valid() {
		return &DomainError{Code: "INVALID_CATEGORY", Message: fmt.Sprintf("unknown document category %q", category)}
	}

	p, err := uc.Repo.FindByID(ctx, prospectID)
	if err != nil {
		return err
	}

	var target *entity.FileDescriptor
	for _, fd := range p.Documents.List(category) {
		if fd.ID == fileID {
			f := fd
			target = &f
			break
		}
	}
	if target == nil {
		return entity.ErrFileNotFound
	}

	if err := uc.Storage.Delete(ctx, target.FileURL); err != nil {
		return &TechnicalError{Code: "STORAGE_ERROR", Message: "failed to delete file: " + err.Error()}
	}

	if err := uc.Repo.RemoveDocument(ctx, prospectID, category, fileID); err != nil {
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to remove file record: " + err.Error()}
	}

	return nil
}
