package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Service provides CRUD operations for one model type.
type Service[T any] struct {
	db *gorm.DB
}

// NewService creates a service over db.
func NewService[T any](db *gorm.DB) *Service[T] {
	return &Service[T]{db: db}
}

// Create inserts v. A zero primary key is assigned by the database.
func (s *Service[T]) Create(ctx context.Context, v *T) error {
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("create: %w", err)
	}
	return nil
}

// Get returns the record with primary key id.
func (s *Service[T]) Get(ctx context.Context, id uint) (*T, error) {
	var v T
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %d: %w", id, err)
	}
	return &v, nil
}

// List returns records ordered by primary key. A limit <= 0 returns all.
func (s *Service[T]) List(ctx context.Context, limit int) ([]T, error) {
	var out []T
	q := s.db.WithContext(ctx).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

// Update saves all fields of v.
func (s *Service[T]) Update(ctx context.Context, v *T) error {
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// Delete removes the record with primary key id.
func (s *Service[T]) Delete(ctx context.Context, id uint) error {
	var v T
	res := s.db.WithContext(ctx).Delete(&v, id)
	if res.Error != nil {
		return fmt.Errorf("delete %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of records.
func (s *Service[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	var v T
	if err := s.db.WithContext(ctx).Model(&v).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Close closes the underlying connection pool.
func (s *Service[T]) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
