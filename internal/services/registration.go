package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/internal/models"
)

const tempPasswordLen = 12

// passwordAlphabet omits look-alike characters.
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// WorkerRegistration is the sign-up payload of a job seeker.
type WorkerRegistration struct {
	Email           string   `json:"email"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Location        string   `json:"location"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	Education       string   `json:"education"`
	Languages       []string `json:"languages"`
	Certifications  []string `json:"certifications"`
}

// CompanyRegistration is the sign-up payload of an employer.
type CompanyRegistration struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Industry    string `json:"industry"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

// Registration is returned once; the temporary password is not stored in clear.
type Registration struct {
	UserID            uint64 `json:"user_id,string"`
	ProfileID         uint64 `json:"profile_id,string"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	TemporaryPassword string `json:"temporary_password"`
}

type RegistrationService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewRegistrationService(db *gorm.DB, log *slog.Logger) *RegistrationService {
	return &RegistrationService{db: db, log: log.With(slog.String("component", "registration"))}
}

func (s *RegistrationService) RegisterWorker(ctx context.Context, in WorkerRegistration) (*Registration, error) {
	return s.register(ctx, in.Email, in.Name, models.UserEmployee, func(tx *gorm.DB, userID uint64) (uint64, error) {
		w := models.Worker{
			UserID:          userID,
			Name:            strings.TrimSpace(in.Name),
			Email:           normalizeEmail(in.Email),
			Phone:           in.Phone,
			Location:        in.Location,
			Skills:          nonNil(in.Skills),
			ExperienceYears: in.ExperienceYears,
			Education:       in.Education,
			Languages:       nonNil(in.Languages),
			Certifications:  nonNil(in.Certifications),
		}
		if err := tx.Create(&w).Error; err != nil {
			return 0, err
		}
		return w.ID, nil
	})
}

func (s *RegistrationService) RegisterCompany(ctx context.Context, in CompanyRegistration) (*Registration, error) {
	return s.register(ctx, in.Email, in.Name, models.UserCompany, func(tx *gorm.DB, userID uint64) (uint64, error) {
		c := models.Company{
			UserID:      userID,
			Name:        strings.TrimSpace(in.Name),
			Industry:    in.Industry,
			Address:     in.Address,
			Phone:       in.Phone,
			Website:     in.Website,
			Description: in.Description,
		}
		if err := tx.Create(&c).Error; err != nil {
			return 0, err
		}
		return c.ID, nil
	})
}

// register creates the user, its role association and the profile in one
// transaction. An existing account with the same email, deleted or not,
// yields ErrAlreadyRegistered and nothing is written.
func (s *RegistrationService) register(ctx context.Context, email, name, role string, profile func(tx *gorm.DB, userID uint64) (uint64, error)) (*Registration, error) {
	email = normalizeEmail(email)
	taken, err := s.emailTaken(s.db.WithContext(ctx), email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrAlreadyRegistered
	}

	password, err := temporaryPassword(tempPasswordLen)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	out := &Registration{Email: email, Role: role, TemporaryPassword: password}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := s.emailTaken(tx, email); err != nil {
			return err
		} else if taken {
			return ErrAlreadyRegistered
		}

		var r models.Role
		if err := tx.Where("name = ?", role).First(&r).Error; err != nil {
			return fmt.Errorf("role %s: %w", role, err)
		}
		user := models.User{
			Email:        email,
			Name:         strings.TrimSpace(name),
			Type:         role,
			PasswordHash: string(hash),
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return err
		}
		if err := tx.Model(&user).Association("Roles").Append(&r); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
		pid, err := profile(tx, user.ID)
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		out.UserID, out.ProfileID = user.ID, pid
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return nil, ErrAlreadyRegistered
		}
		s.log.ErrorContext(ctx, "registration rolled back", slog.String("role", role), slog.String("error", err.Error()))
		return nil, fmt.Errorf("register %s: %w", role, err)
	}
	s.log.InfoContext(ctx, "user registered", slog.String("role", role), slog.Uint64("user_id", out.UserID))
	return out, nil
}

func (s *RegistrationService) emailTaken(db *gorm.DB, email string) (bool, error) {
	var n int64
	err := db.Unscoped().Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&n).Error
	return n > 0, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func temporaryPassword(n int) (string, error) {
	return randomString(rand.Reader, n)
}

// maxUnbiased is the largest multiple of len(passwordAlphabet) a byte can
// hold; bytes at or above it are discarded so every character is equally likely.
const maxUnbiased = 256 - 256%len(passwordAlphabet)

func randomString(src io.Reader, n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, passwordAlphabet[int(b)%len(passwordAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
