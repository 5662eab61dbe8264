package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Company is the profile of a user registered as an employer.
type Company struct {
	ID          uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	UserID      uint64         `gorm:"uniqueIndex;not null" json:"user_id,string"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Industry    string         `gorm:"size:150" json:"industry"`
	Address     string         `gorm:"size:500" json:"address"`
	Phone       string         `gorm:"size:50" json:"phone"`
	Website     string         `gorm:"size:255" json:"website"`
	Logo        string         `gorm:"size:500" json:"logo"`
	Description string         `gorm:"type:text" json:"description"`
}

func (Company) TableName() string { return "companies" }

// GetUserID implements ownership checks.
func (c *Company) GetUserID() uint64 { return c.UserID }

// Vacancy types.
const (
	VacancyFullTime   = "full_time"
	VacancyPartTime   = "part_time"
	VacancyContract   = "contract"
	VacancyInternship = "internship"
)

// VacancyTypes lists the accepted Vacancy.Type values.
var VacancyTypes = []string{VacancyFullTime, VacancyPartTime, VacancyContract, VacancyInternship}

// Vacancy is a job opening published by a company.
type Vacancy struct {
	ID          uint64                      `gorm:"primaryKey" json:"id,string"`
	CreatedAt   time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	DeletedAt   gorm.DeletedAt              `gorm:"index" json:"-"`
	CompanyID   uint64                      `gorm:"index;not null" json:"company_id,string"`
	Company     *Company                    `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Title       string                      `gorm:"size:255;not null" json:"title"`
	SalaryMin   int64                       `json:"salary_min"`
	SalaryMax   int64                       `json:"salary_max"`
	Type        string                      `gorm:"size:30;index" json:"type"`
	Location    string                      `gorm:"size:255" json:"location"`
	Description string                      `gorm:"type:text" json:"description"`
	Benefits    datatypes.JSONSlice[string] `json:"benefits"`
	Status      bool                        `gorm:"not null;index" json:"status"`
}

func (Vacancy) TableName() string { return "vacancies" }

// GetUserID returns the owning company's user; Company must be preloaded.
func (v *Vacancy) GetUserID() uint64 {
	if v.Company == nil {
		return 0
	}
	return v.Company.UserID
}

// Worker is the profile of a user registered as a job seeker.
type Worker struct {
	ID              uint64                      `gorm:"primaryKey" json:"id,string"`
	CreatedAt       time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	DeletedAt       gorm.DeletedAt              `gorm:"index" json:"-"`
	UserID          uint64                      `gorm:"uniqueIndex;not null" json:"user_id,string"`
	Name            string                      `gorm:"size:255;not null" json:"name"`
	Email           string                      `gorm:"size:255" json:"email"`
	Phone           string                      `gorm:"size:50" json:"phone"`
	Location        string                      `gorm:"size:255;index" json:"location"`
	Skills          datatypes.JSONSlice[string] `json:"skills"`
	ExperienceYears int                         `gorm:"not null" json:"experience_years"`
	Education       string                      `gorm:"size:255" json:"education"`
	Languages       datatypes.JSONSlice[string] `json:"languages"`
	Certifications  datatypes.JSONSlice[string] `json:"certifications"`
	Photo           string                      `gorm:"size:500" json:"photo"`
}

func (Worker) TableName() string { return "workers" }

// GetUserID implements ownership checks.
func (w *Worker) GetUserID() uint64 { return w.UserID }
