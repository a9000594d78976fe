package newsletter

import (
	"errors"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/scene-ouverte/newsletter-core/internal/models"
	"github.com/scene-ouverte/newsletter-core/internal/pkg/pagination"
	"github.com/scene-ouverte/newsletter-core/internal/pkg/response"
	"gorm.io/gorm"
)

// Store is the persistence boundary of the newsletter core. Lookups return
// (nil, nil) when no subscriber matches; Insert returns ErrDuplicate when the
// email or token unique index rejects the row.
type Store interface {
	FindByID(id string) (*models.SubscriberModel, error)
	FindByEmail(email string) (*models.SubscriberModel, error)
	FindByToken(token string) (*models.SubscriberModel, error)
	Insert(sub *models.SubscriberModel) error
	UpdateStatus(id string, status models.SubscriberStatus, unsubscribedAt *time.Time) error
	ListActive() ([]models.SubscriberModel, error)
	List(status models.SubscriberStatus, q pagination.Query) ([]models.SubscriberModel, response.Pagination, error)
	CountByStatus(status models.SubscriberStatus) (int64, error)
	Delete(id string) error
}

// GormStore implements Store on MySQL through GORM.
type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) FindByID(id string) (*models.SubscriberModel, error) {
	return s.findOne("id = ?", id)
}

func (s *GormStore) FindByEmail(email string) (*models.SubscriberModel, error) {
	return s.findOne("email = ?", email)
}

func (s *GormStore) FindByToken(token string) (*models.SubscriberModel, error) {
	return s.findOne("unsubscribe_token = ?", token)
}

func (s *GormStore) findOne(query string, arg interface{}) (*models.SubscriberModel, error) {
	var sub models.SubscriberModel
	if err := s.db.Where(query, arg).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *GormStore) Insert(sub *models.SubscriberModel) error {
	err := s.db.Create(sub).Error
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateStatus transitions a subscriber and keeps the invariant that
// unsubscribed_at is set exactly when status is "unsubscribed".
func (s *GormStore) UpdateStatus(id string, status models.SubscriberStatus, unsubscribedAt *time.Time) error {
	if status != models.SubscriberUnsubscribed {
		unsubscribedAt = nil
	}
	result := s.db.Model(&models.SubscriberModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"unsubscribed_at": unsubscribedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListActive() ([]models.SubscriberModel, error) {
	var subs []models.SubscriberModel
	err := s.db.Where("status = ?", models.SubscriberActive).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

func (s *GormStore) List(status models.SubscriberStatus, q pagination.Query) ([]models.SubscriberModel, response.Pagination, error) {
	db := s.db.Model(&models.SubscriberModel{}).Order("created_at DESC")
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var subs []models.SubscriberModel
	p, err := pagination.Paginate(db, q, &subs)
	return subs, p, err
}

func (s *GormStore) CountByStatus(status models.SubscriberStatus) (int64, error) {
	var count int64
	err := s.db.Model(&models.SubscriberModel{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (s *GormStore) Delete(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.SubscriberModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKey detects a unique-index violation, which is the authoritative
// dedup guard for concurrent imports of the same address.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *driver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
