package repository

import (
	"context"

	"petconnect/internal/models"

	"gorm.io/gorm"
)

// MissingPetRepository persists lost-and-found reports and their contacts.
type MissingPetRepository interface {
	Create(ctx context.Context, report *models.MissingPetReport) error
	GetByID(ctx context.Context, id uint) (*models.MissingPetReport, error)
	ListByReporter(ctx context.Context, reporterID uint) ([]models.MissingPetReport, error)
	ListAll(ctx context.Context) ([]models.MissingPetReport, error)
	ListMatchCandidates(ctx context.Context, excludeID uint, status models.ReportStatus, species string) ([]models.MissingPetReport, error)
	UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) error
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error)
	CreateContact(ctx context.Context, contact *models.MissingPetContact) error
	ListContacts(ctx context.Context, reportID uint) ([]models.MissingPetContact, error)
}

type missingPetRepository struct {
	db *gorm.DB
}

func NewMissingPetRepository(db *gorm.DB) MissingPetRepository {
	return &missingPetRepository{db: db}
}

// withDetails loads the reporter and the computed contact count.
func (r *missingPetRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Select("missing_pet_reports.*, " +
		"(SELECT COUNT(*) FROM missing_pet_contacts WHERE missing_pet_contacts.report_id = missing_pet_reports.id) AS contact_count").
		Preload("Reporter")
}

func (r *missingPetRepository) Create(ctx context.Context, report *models.MissingPetReport) error {
	if report.Status == "" {
		report.Status = models.ReportStatusMissing
	}
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *missingPetRepository) GetByID(ctx context.Context, id uint) (*models.MissingPetReport, error) {
	var report models.MissingPetReport
	if err := r.withDetails(readDB(r.db).WithContext(ctx)).First(&report, id).Error; err != nil {
		return nil, notFoundOr(err, "Missing pet report", id)
	}
	return &report, nil
}

func (r *missingPetRepository) ListByReporter(ctx context.Context, reporterID uint) ([]models.MissingPetReport, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("missing_pet_reports.reporter_id = ?", reporterID)
	})
}

func (r *missingPetRepository) ListAll(ctx context.Context) ([]models.MissingPetReport, error) {
	return r.list(ctx, nil)
}

// ListMatchCandidates returns reports other than excludeID with the given
// status and a case-insensitively equal species.
func (r *missingPetRepository) ListMatchCandidates(ctx context.Context, excludeID uint, status models.ReportStatus, species string) ([]models.MissingPetReport, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("missing_pet_reports.id <> ? AND missing_pet_reports.status = ? AND LOWER(missing_pet_reports.species) = LOWER(?)",
			excludeID, status, species)
	})
}

func (r *missingPetRepository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]models.MissingPetReport, error) {
	q := r.withDetails(readDB(r.db).WithContext(ctx))
	if scope != nil {
		q = scope(q)
	}
	var reports []models.MissingPetReport
	if err := q.Order("missing_pet_reports.created_at DESC, missing_pet_reports.id DESC").Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *missingPetRepository) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) error {
	res := r.db.WithContext(ctx).Model(&models.MissingPetReport{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Missing pet report", id)
	}
	return nil
}

// Delete removes the report together with its contacts.
func (r *missingPetRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&models.MissingPetContact{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.MissingPetReport{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Missing pet report", id)
	}
	return nil
}

func (r *missingPetRepository) CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.MissingPetReport{}).Where("status = ?", status).Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *missingPetRepository) CreateContact(ctx context.Context, contact *models.MissingPetContact) error {
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *missingPetRepository) ListContacts(ctx context.Context, reportID uint) ([]models.MissingPetContact, error) {
	var contacts []models.MissingPetContact
	err := readDB(r.db).WithContext(ctx).
		Preload("ContactUser").
		Where("report_id = ?", reportID).
		Order("created_at DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return contacts, nil
}
