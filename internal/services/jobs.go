package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/internal/listing"
	"github.com/kerjaberkah/portal/internal/models"
)

// JobService backs the Kerja Berkah job-matching portal.
type JobService struct {
	db    *gorm.DB
	media Media
	log   *slog.Logger
}

func NewJobService(db *gorm.DB, media Media, log *slog.Logger) *JobService {
	return &JobService{db: db, media: media, log: log.With(slog.String("component", "jobs"))}
}

// ─────────────────────────────────────────────────────────────────────────────
// Vacancies
// ─────────────────────────────────────────────────────────────────────────────

type VacancyFilter struct {
	Status    string
	Search    string
	Type      string
	Location  string
	CompanyID uint64
}

func (s *JobService) ListVacancies(ctx context.Context, f VacancyFilter) ([]models.Vacancy, error) {
	vacancies := make([]models.Vacancy, 0)
	q := s.db.WithContext(ctx).
		Scopes(
			statusScope("status", f.Status),
			searchScope(f.Search, "title", "description"),
		)
	if t := strings.TrimSpace(f.Type); t != "" {
		q = q.Where("type = ?", t)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where(`LOWER(location) LIKE ? ESCAPE '\'`, containsPattern(loc))
	}
	if f.CompanyID != 0 {
		q = q.Where("company_id = ?", f.CompanyID)
	}
	err := q.Preload("Company").Order("created_at DESC").Order("id DESC").Find(&vacancies).Error
	if err != nil {
		return nil, fmt.Errorf("list vacancies: %w", err)
	}
	for i := range vacancies {
		s.signCompany(ctx, vacancies[i].Company)
	}
	return vacancies, nil
}

// GetVacancy returns a vacancy with its company; inactive ones included so
// owners can still manage them.
func (s *JobService) GetVacancy(ctx context.Context, id uint64) (*models.Vacancy, error) {
	var v models.Vacancy
	if err := s.db.WithContext(ctx).Preload("Company").First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get vacancy %d: %w", id, err)
	}
	s.signCompany(ctx, v.Company)
	return &v, nil
}

// VacancyInput is the writable part of a vacancy.
type VacancyInput struct {
	Title       string   `json:"title"`
	SalaryMin   int64    `json:"salary_min"`
	SalaryMax   int64    `json:"salary_max"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
	Status      *bool    `json:"status"`
}

func (in VacancyInput) apply(v *models.Vacancy) {
	v.Title = strings.TrimSpace(in.Title)
	v.SalaryMin = in.SalaryMin
	v.SalaryMax = in.SalaryMax
	v.Type = in.Type
	v.Location = in.Location
	v.Description = in.Description
	v.Benefits = nonNil(in.Benefits)
	v.Status = in.Status == nil || *in.Status
}

func (s *JobService) CreateVacancy(ctx context.Context, companyID uint64, in VacancyInput) (*models.Vacancy, error) {
	v := models.Vacancy{CompanyID: companyID}
	in.apply(&v)
	if err := s.db.WithContext(ctx).Omit("Company").Create(&v).Error; err != nil {
		return nil, fmt.Errorf("create vacancy: %w", err)
	}
	return s.GetVacancy(ctx, v.ID)
}

func (s *JobService) UpdateVacancy(ctx context.Context, v *models.Vacancy, in VacancyInput) (*models.Vacancy, error) {
	in.apply(v)
	if err := s.db.WithContext(ctx).Omit("Company").Save(v).Error; err != nil {
		return nil, fmt.Errorf("update vacancy %d: %w", v.ID, err)
	}
	return s.GetVacancy(ctx, v.ID)
}

func (s *JobService) DeleteVacancy(ctx context.Context, id uint64) error {
	return softDelete(s.db.WithContext(ctx), &models.Vacancy{}, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Workers
// ─────────────────────────────────────────────────────────────────────────────

type WorkerFilter struct {
	Search        string
	Location      string
	Skill         string
	MinExperience int
}

var workerFields = listing.Fields[models.Worker]{
	Title:      func(w models.Worker) string { return w.Name },
	Categories: func(w models.Worker) []string { return w.Skills },
	Text:       func(w models.Worker) []string { return w.Skills },
	CreatedAt:  func(w models.Worker) time.Time { return w.CreatedAt },
}

// ListWorkers narrows by location and experience in the store, then
// matches name/skills and the exact skill in memory.
func (s *JobService) ListWorkers(ctx context.Context, f WorkerFilter) ([]models.Worker, error) {
	workers := make([]models.Worker, 0)
	q := s.db.WithContext(ctx)
	if f.MinExperience > 0 {
		q = q.Where("experience_years >= ?", f.MinExperience)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where(`LOWER(location) LIKE ? ESCAPE '\'`, containsPattern(loc))
	}
	if err := q.Find(&workers).Error; err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	workers = listing.Apply(workers, listing.Query{
		Category: strings.TrimSpace(f.Skill),
		Search:   strings.TrimSpace(f.Search),
		Sort:     listing.SortNewest,
	}, workerFields)
	for i := range workers {
		workers[i].Photo = s.media.ResolveURL(ctx, workers[i].Photo)
	}
	return workers, nil
}

func (s *JobService) GetWorker(ctx context.Context, id uint64) (*models.Worker, error) {
	var w models.Worker
	if err := s.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get worker %d: %w", id, err)
	}
	w.Photo = s.media.ResolveURL(ctx, w.Photo)
	return &w, nil
}

// WorkerInput is the writable part of a worker profile.
type WorkerInput struct {
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Location        string   `json:"location"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	Education       string   `json:"education"`
	Languages       []string `json:"languages"`
	Certifications  []string `json:"certifications"`
	Photo           string   `json:"photo"`
}

// UpdateWorker overwrites the profile fields. The stored photo path is kept
// when in.Photo is empty or an already signed URL.
func (s *JobService) UpdateWorker(ctx context.Context, id uint64, in WorkerInput) (*models.Worker, error) {
	var w models.Worker
	if err := s.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get worker %d: %w", id, err)
	}
	w.Name = strings.TrimSpace(in.Name)
	w.Phone = in.Phone
	w.Location = in.Location
	w.Skills = nonNil(in.Skills)
	w.ExperienceYears = in.ExperienceYears
	w.Education = in.Education
	w.Languages = nonNil(in.Languages)
	w.Certifications = nonNil(in.Certifications)
	if p := strings.TrimSpace(in.Photo); p != "" && !strings.Contains(p, "X-Amz-Signature=") {
		w.Photo = p
	}
	if err := s.db.WithContext(ctx).Save(&w).Error; err != nil {
		return nil, fmt.Errorf("update worker %d: %w", id, err)
	}
	w.Photo = s.media.ResolveURL(ctx, w.Photo)
	return &w, nil
}

func (s *JobService) DeleteWorker(ctx context.Context, id uint64) error {
	return softDelete(s.db.WithContext(ctx), &models.Worker{}, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Companies
// ─────────────────────────────────────────────────────────────────────────────

func (s *JobService) GetCompany(ctx context.Context, id uint64) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get company %d: %w", id, err)
	}
	s.signCompany(ctx, &c)
	return &c, nil
}

// CompanyForUser returns the company profile owned by userID.
func (s *JobService) CompanyForUser(ctx context.Context, userID uint64) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).First(&c, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("company for user %d: %w", userID, err)
	}
	return &c, nil
}

// CompanyInput is the writable part of a company profile.
type CompanyInput struct {
	Name        string `json:"name"`
	Industry    string `json:"industry"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Logo        string `json:"logo"`
	Description string `json:"description"`
}

func (s *JobService) UpdateCompany(ctx context.Context, id uint64, in CompanyInput) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get company %d: %w", id, err)
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Industry = in.Industry
	c.Address = in.Address
	c.Phone = in.Phone
	c.Website = in.Website
	c.Description = in.Description
	if l := strings.TrimSpace(in.Logo); l != "" && !strings.Contains(l, "X-Amz-Signature=") {
		c.Logo = l
	}
	if err := s.db.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, fmt.Errorf("update company %d: %w", id, err)
	}
	s.signCompany(ctx, &c)
	return &c, nil
}

func (s *JobService) signCompany(ctx context.Context, c *models.Company) {
	if c != nil {
		c.Logo = s.media.ResolveURL(ctx, c.Logo)
	}
}
