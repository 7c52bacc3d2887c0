package service

import (
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
	"github.com/shiftascent/shiftascent/internal/validation"
)

type UserService struct {
	repo        repository.UserRepository
	fileService *FileService
}

func NewUserService(repo repository.UserRepository, fileService *FileService) *UserService {
	return &UserService{
		repo:        repo,
		fileService: fileService,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.repo.ByID(id)
}

func (s *UserService) UpdateName(userID, name string) (*model.User, error) {
	if name == "" {
		return nil, integrity.Validation("name", "name is required")
	}

	user, err := s.repo.ByID(userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	err = s.repo.Update(user)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	return user, nil
}

func (s *UserService) ChangePassword(userID, currentPassword, newPassword string) error {
	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return integrity.Validation("password", err.Error())
	}

	user, err := s.repo.ByID(userID)
	if err != nil {
		return err
	}

	if user.HasPassword() {
		err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword))
		if err != nil {
			return integrity.Validation("currentPassword", "current password is incorrect")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	hashStr := string(hash)
	user.PasswordHash = &hashStr
	err = s.repo.Update(user)
	if err != nil {
		return integrity.WrapStore(err)
	}

	return nil
}

// DeleteAccount removes the user and everything cascaded from them. Uploaded
// proof files are deleted from storage best effort first; the row cascade
// handles the rest.
func (s *UserService) DeleteAccount(userID string) error {
	err := s.fileService.DeleteAllUserFiles(userID)
	if err != nil {
		slog.Warn("failed to clean up user files during account deletion", "error", err, "user_id", userID)
	}

	err = s.repo.Delete(userID)
	if err != nil {
		return integrity.WrapStore(err)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}
