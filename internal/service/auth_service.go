package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"coursecms/config"
	"coursecms/internal/auth"
	"coursecms/internal/domain"
	"coursecms/internal/models"
	"coursecms/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

type AuthService struct {
	cfg       *config.Config
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditLogRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, auditRepo *repository.AuditLogRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, auditRepo: auditRepo}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(name, email, password string) (*models.User, string, string, error) {
	u, err := s.createUser(name, email, password, domain.RoleStudent)
	if err != nil {
		return nil, "", "", err
	}
	s.audit(u.ID, domain.AuditRegister, "")
	access, refresh, err := s.issueTokens(u)
	if err != nil {
		return u, "", "", err
	}
	return u, access, refresh, nil
}

// CreateStudent is the admin path for adding a student account.
func (s *AuthService) CreateStudent(name, email, password string) (*models.User, error) {
	return s.createUser(name, email, password, domain.RoleStudent)
}

func (s *AuthService) createUser(name, email, password, role string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	s.audit(u.ID, domain.AuditLogin, "")
	access, refresh, err := s.issueTokens(u)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}

func (s *AuthService) RefreshToken(refreshToken string) (access, refresh string, err error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", "", err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", auth.ErrInvalidToken
		}
		return "", "", err
	}
	return s.issueTokens(u)
}

func (s *AuthService) GetUser(userID uint) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile changes name and/or email. At least one must be given.
func (s *AuthService) UpdateProfile(userID uint, name, email *string) (*models.User, error) {
	if name == nil && email == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	u, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		u.Name = n
	}
	if email != nil {
		e := normalizeEmail(*email)
		if e == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", ErrValidation)
		}
		if e != u.Email {
			other, err := s.userRepo.GetByEmail(e)
			if err == nil && other.ID != u.ID {
				return nil, ErrEmailExists
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
		u.Email = e
	}
	if err := s.userRepo.Update(u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

// UpdateStudent is the admin path; it refuses to touch admin accounts.
func (s *AuthService) UpdateStudent(id uint, name, email *string) (*models.User, error) {
	u, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	if !u.IsStudent() {
		return nil, ErrUserNotFound
	}
	return s.UpdateProfile(id, name, email)
}

func (s *AuthService) ListStudents(search string, page, limit int) ([]models.User, int64, error) {
	return s.userRepo.ListStudents(search, page, limit)
}

// ChangePassword updates the user's password. Requires current password verification.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	if err := s.userRepo.Update(u); err != nil {
		return err
	}
	s.audit(u.ID, domain.AuditPasswordChanged, "")
	return nil
}

func (s *AuthService) issueTokens(u *models.User) (string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Name, u.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *AuthService) audit(userID uint, action, metadata string) {
	if s.auditRepo == nil {
		return
	}
	uid := userID
	if err := s.auditRepo.Create(&models.AuditLog{UserID: &uid, Action: action, Resource: "user", ResourceID: fmt.Sprint(userID), Metadata: metadata}); err != nil {
		log.Printf("[auth] audit %s for user %d: %v", action, userID, err)
	}
}
