package repository

import (
	"context"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Group, error)
	FindMembers(ctx context.Context, tx *gorm.DB, groupID string) ([]models.GroupMember, error)
	FindGroupsWithPendingRequests(ctx context.Context, date time.Time) ([]string, error)
	UpsertGroup(ctx context.Context, group *models.Group) error
	AddMember(ctx context.Context, member *models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Group, error) {
	var group models.Group
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindMembers lists members in join order, which is the order they are seated in.
func (r *groupRepository) FindMembers(ctx context.Context, tx *gorm.DB, groupID string) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := conn(ctx, r.db, tx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC, user_id ASC").
		Find(&members).Error
	return members, err
}

func (r *groupRepository) FindGroupsWithPendingRequests(ctx context.Context, date time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("group_members AS gm").
		Distinct("gm.group_id").
		Joins("JOIN daily_requests dr ON dr.user_id = gm.user_id").
		Where("dr.date = ? AND dr.status = ?", date, models.RequestPending).
		Order("gm.group_id ASC").
		Pluck("gm.group_id", &ids).Error
	return ids, err
}

func (r *groupRepository) UpsertGroup(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"join_code", "max_size", "updated_at"}),
	}).Create(group).Error
}

// AddMember moves the user into the group; a user has at most one membership.
func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND group_id <> ?", member.UserID, member.GroupID).
			Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(member).Error
	})
}

func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}
