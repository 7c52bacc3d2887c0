package service

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
	"github.com/shiftascent/shiftascent/internal/storage"
	"github.com/shiftascent/shiftascent/internal/validation"
)

// FileService handles proof image uploads attached to reflections.
type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// UploadProof validates and stores a proof image for a milestone. The caller
// has already verified the user owns the milestone.
func (s *FileService) UploadProof(userID, milestoneID string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	err := validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return nil, integrity.Validation("proof", err.Error())
	}

	ext := filepath.Ext(header.Filename)
	filename := uuid.New().String() + ext
	storagePath := filepath.Join("proofs", filename)

	err = s.storage.Save(storagePath, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save proof: %w", err)
	}

	record := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    model.FileOwnerMilestone,
		OwnerID:      milestoneID,
		Type:         model.FileTypeProof,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       true,
		CreatedAt:    time.Now(),
	}

	err = s.fileRepo.Create(record)
	if err != nil {
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to clean up orphaned upload", "error", delErr, "path", storagePath)
		}
		return nil, integrity.WrapStore(err)
	}

	return record, nil
}

func (s *FileService) ByID(id string) (*model.File, error) {
	return s.fileRepo.ByID(id)
}

// ProofForMilestone returns the most recent proof image attached to a
// milestone, or ErrFileNotFound.
func (s *FileService) ProofForMilestone(milestoneID string) (*model.File, error) {
	files, err := s.fileRepo.Files(model.FileOwnerMilestone, milestoneID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, repository.ErrFileNotFound
	}
	return files[0], nil
}

// URL returns a presigned URL for viewing the file.
func (s *FileService) URL(file *model.File) string {
	if file == nil {
		return ""
	}
	return s.storage.URL(file.StoragePath)
}

func (s *FileService) Delete(fileID string) error {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return err
	}

	// Best effort; the physical object may already be gone.
	delErr := s.storage.Delete(file.StoragePath)
	if delErr != nil {
		slog.Warn("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	return s.fileRepo.Delete(fileID)
}

// DeleteAllUserFiles removes a user's uploads from storage ahead of account
// deletion. Database rows go with the user cascade.
func (s *FileService) DeleteAllUserFiles(userID string) error {
	files, err := s.fileRepo.FilesByUser(userID)
	if err != nil {
		return err
	}

	for _, file := range files {
		err = s.storage.Delete(file.StoragePath)
		if err != nil {
			slog.Warn("failed to delete file from storage", "error", err, "path", file.StoragePath)
		}
	}

	return nil
}
