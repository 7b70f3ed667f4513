package controllers

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sandarika/labubananas/models"
)

// The schema carries no foreign key constraints, so parents are removed only
// after every dependent row. All functions expect to run inside a transaction.
//
// Writers that add a child row read the parent with lockShared; deletes lock the
// parent rows for update before touching children. A child insert either commits
// before the delete starts, and is removed with it, or finds the parent gone.

// lockShared loads the row with the given id, holding a shared lock until the transaction ends.
func lockShared(tx *gorm.DB, dest interface{}, id uint) error {
	return tx.Clauses(clause.Locking{Strength: "SHARE"}).First(dest, id).Error
}

// lockForDelete takes update locks on the rows of model with the given ids.
func lockForDelete(tx *gorm.DB, model interface{}, ids []uint) error {
	var locked []uint
	return tx.Model(model).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id IN ?", ids).Pluck("id", &locked).Error
}

func deletePosts(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	if err := lockForDelete(tx, &models.Post{}, postIDs); err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Feedback{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostVote{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error
}

func deletePolls(tx *gorm.DB, pollIDs []uint) error {
	if len(pollIDs) == 0 {
		return nil
	}
	if err := lockForDelete(tx, &models.Poll{}, pollIDs); err != nil {
		return err
	}
	if err := tx.Where("poll_id IN ?", pollIDs).Delete(&models.PollVote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("poll_id IN ?", pollIDs).Delete(&models.PollOption{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", pollIDs).Delete(&models.Poll{}).Error
}

func deleteEvents(tx *gorm.DB, eventIDs []uint) error {
	if len(eventIDs) == 0 {
		return nil
	}
	if err := lockForDelete(tx, &models.Event{}, eventIDs); err != nil {
		return err
	}
	if err := tx.Where("event_id IN ?", eventIDs).Delete(&models.EventAttendee{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", eventIDs).Delete(&models.Event{}).Error
}

// deleteUnion removes a union with its posts, polls, events and memberships.
func deleteUnion(tx *gorm.DB, unionID uint) error {
	if err := lockForDelete(tx, &models.Union{}, []uint{unionID}); err != nil {
		return err
	}
	var postIDs, pollIDs, eventIDs []uint
	if err := tx.Model(&models.Post{}).Where("union_id = ?", unionID).Pluck("id", &postIDs).Error; err != nil {
		return err
	}
	if err := deletePosts(tx, postIDs); err != nil {
		return err
	}
	if err := tx.Model(&models.Poll{}).Where("union_id = ?", unionID).Pluck("id", &pollIDs).Error; err != nil {
		return err
	}
	if err := deletePolls(tx, pollIDs); err != nil {
		return err
	}
	if err := tx.Model(&models.Event{}).Where("union_id = ?", unionID).Pluck("id", &eventIDs).Error; err != nil {
		return err
	}
	if err := deleteEvents(tx, eventIDs); err != nil {
		return err
	}
	if err := tx.Where("union_id = ?", unionID).Delete(&models.UnionMembership{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Union{}, unionID).Error
}
