package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reader exposes lookups against the profile documents.
type Reader interface {
	Get(ctx context.Context, uid string) (Profile, error)
	Exists(ctx context.Context, uid string) (bool, error)
	List(ctx context.Context) ([]Profile, error)
}

// Writer exposes mutations of the profile documents.
// Update returns ErrNotFound when no document exists for the key.
type Writer interface {
	Set(ctx context.Context, uid string, profile Profile) error
	Update(ctx context.Context, uid string, update Update) error
	Delete(ctx context.Context, uid string) error
}

// Store is the profile document store consumed by the membership operations.
type Store interface {
	Reader
	Writer
}

var errMissingDatabase = errors.New("profiles: database connection required")

// GORMStoreConfig describes the dependencies of the SQL-backed store.
type GORMStoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// GORMStore keeps profile documents in a relational table, one row per uid.
type GORMStore struct {
	db     *gorm.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewGORMStore constructs the SQL-backed profile store.
func NewGORMStore(cfg GORMStoreConfig) (*GORMStore, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GORMStore{
		db:     cfg.Database,
		now:    clock,
		logger: logger,
	}, nil
}

func (s *GORMStore) Get(ctx context.Context, uid string) (Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("uid = ?", uid).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profiles: get %s: %w", uid, err)
	}
	return profile, nil
}

func (s *GORMStore) Exists(ctx context.Context, uid string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Profile{}).Where("uid = ?", uid).Count(&count).Error; err != nil {
		return false, fmt.Errorf("profiles: exists %s: %w", uid, err)
	}
	return count > 0, nil
}

// Set writes the whole document, replacing any existing one.
func (s *GORMStore) Set(ctx context.Context, uid string, profile Profile) error {
	key, err := ValidateUID(uid)
	if err != nil {
		return err
	}
	profile.UID = key
	now := s.now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		return fmt.Errorf("profiles: set %s: %w", key, err)
	}
	s.logger.Debug("profile stored", zap.String("uid", key))
	return nil
}

func (s *GORMStore) Update(ctx context.Context, uid string, update Update) error {
	fields := update.Fields()
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = s.now().UTC()
	result := s.db.WithContext(ctx).Model(&Profile{}).Where("uid = ?", uid).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("profiles: update %s: %w", uid, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document; deleting a missing key is not an error.
func (s *GORMStore) Delete(ctx context.Context, uid string) error {
	result := s.db.WithContext(ctx).Where("uid = ?", uid).Delete(&Profile{})
	if result.Error != nil {
		return fmt.Errorf("profiles: delete %s: %w", uid, result.Error)
	}
	if result.RowsAffected == 0 {
		s.logger.Debug("profile delete matched no rows", zap.String("uid", uid))
	}
	return nil
}

func (s *GORMStore) List(ctx context.Context) ([]Profile, error) {
	var profiles []Profile
	if err := s.db.WithContext(ctx).Order("uid ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("profiles: list: %w", err)
	}
	return profiles, nil
}
