package repository

import (
	"context"

	"github.com/yukikurage/company-task-api/internal/models"
	"gorm.io/gorm"
)

// GormCompanyRepository is a GORM implementation of CompanyRepository
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create creates a new company
func (r *GormCompanyRepository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// FindByCode finds a company by its code
func (r *GormCompanyRepository) FindByCode(ctx context.Context, code string) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// ExistsByCode reports whether a company already uses the code.
// Soft-deleted companies still hold their code.
func (r *GormCompanyRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Company{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
