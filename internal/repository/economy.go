package repository

import (
	"context"
	"fmt"
	"time"

	"rewards_academy/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// DailyRewardParams carries the config constants behind the daily claim.
type DailyRewardParams struct {
	BaseReward     decimal.Decimal
	StreakUnit     decimal.Decimal
	MaxStreakBonus decimal.Decimal
}

// dayOf truncates a timestamp to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// nextStreak applies the streak rule: claimed yesterday extends the streak,
// any longer gap resets it to one.
func nextStreak(lastRewardDate *time.Time, today time.Time, currentStreak int) int {
	if lastRewardDate != nil && dayOf(*lastRewardDate).Equal(today.AddDate(0, 0, -1)) {
		return currentStreak + 1
	}
	return 1
}

// streakBonus is streak * unit, capped.
func streakBonus(params DailyRewardParams, streak int) decimal.Decimal {
	bonus := params.StreakUnit.Mul(decimal.NewFromInt(int64(streak)))
	if bonus.GreaterThan(params.MaxStreakBonus) {
		return params.MaxStreakBonus
	}
	return bonus
}

// ClaimDaily settles one daily reward. The streak rule lives here rather
// than in the service because read, computation and write must share a
// transaction: the conditional predicate on last_reward_date makes two
// simultaneous claims resolve to one winner and one ErrAlreadyClaimed.
func (r *Repository) ClaimDaily(ctx context.Context, userID int64, now time.Time, params DailyRewardParams) (*model.DailyClaim, error) {
	var claim *model.DailyClaim

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserWithTx(ctx, tx, userID, true)
		if err != nil {
			return err
		}

		today := dayOf(now)
		if user.LastRewardDate != nil && dayOf(*user.LastRewardDate).Equal(today) {
			return ErrAlreadyClaimed
		}

		newStreak := nextStreak(user.LastRewardDate, today, user.DailyStreak)
		bonus := streakBonus(params, newStreak)
		total := params.BaseReward.Add(bonus)

		query, args, err := squirrel.
			Update("users").
			SetMap(map[string]interface{}{
				"daily_streak":     newStreak,
				"last_reward_date": today,
			}).
			Where(squirrel.Eq{"id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update streak: %w", err)
		}

		entry := &model.LedgerEntry{
			Type:      model.EntryDailyReward,
			ToAccount: userID,
			Coins:     total,
			Reason:    fmt.Sprintf("Daily reward - streak: %d", newStreak),
		}
		if err := r.appendEntryTx(ctx, tx, entry); err != nil {
			return err
		}

		claim = &model.DailyClaim{
			UserID:      userID,
			NewStreak:   newStreak,
			BaseReward:  params.BaseReward,
			StreakBonus: bonus,
			TotalReward: total,
			ClaimedAt:   now.UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claim, nil
}

// RecordActivity credits a learning session: already-computed points and
// coins plus the matching learning_activity entry.
func (r *Repository) RecordActivity(ctx context.Context, reward *model.ActivityReward) error {
	entry := &model.LedgerEntry{
		Type:      model.EntryLearningActivity,
		ToAccount: reward.UserID,
		Points:    reward.PointsEarned,
		Coins:     reward.CoinsEarned,
		Reason:    fmt.Sprintf("Learning activity: %s (%d min)", reward.ActivityType, reward.Minutes),
	}
	_, err := r.AppendEntry(ctx, entry)
	return err
}

// RewardTeaching pays the fixed reward for mentoring one new student. The
// (teacher, student) edge is unique; the primary key decides concurrent
// duplicates.
func (r *Repository) RewardTeaching(ctx context.Context, teacherID, studentID int64, points int, coins decimal.Decimal) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		insertQuery, insertArgs, err := squirrel.
			Insert("teaching_network").
			SetMap(map[string]interface{}{
				"teacher_id":   teacherID,
				"student_id":   studentID,
				"coins_earned": coins,
			}).
			Suffix("ON CONFLICT (teacher_id, student_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build teaching insert query: %w", err)
		}

		result, err := tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert teaching link: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyRewarded
		}

		entry = &model.LedgerEntry{
			Type:      model.EntryTeachingReward,
			ToAccount: teacherID,
			Points:    points,
			Coins:     coins,
			Reason:    fmt.Sprintf("Teaching reward for student %d", studentID),
		}
		return r.appendEntryTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *Repository) CountStudents(ctx context.Context, teacherID int64) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(DISTINCT student_id)").
		From("teaching_network").
		Where(squirrel.Eq{"teacher_id": teacherID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// EvaluatePromotion promotes the user if their student count has unlocked a
// higher leadership level. Promotion is monotonic: the predicate on the
// stored level makes repeated evaluation (one per teaching event) a no-op
// once the level has been reached, even under concurrency.
func (r *Repository) EvaluatePromotion(ctx context.Context, userID int64, promotionUnit decimal.Decimal) (*model.Promotion, error) {
	var promotion *model.Promotion

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		countQuery, countArgs, err := squirrel.
			Select("COUNT(DISTINCT student_id)").
			From("teaching_network").
			Where(squirrel.Eq{"teacher_id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var studentCount int
		if err := tx.GetContext(ctx, &studentCount, countQuery, countArgs...); err != nil {
			return err
		}

		user, err := r.getUserWithTx(ctx, tx, userID, true)
		if err != nil {
			return err
		}

		newLevel := model.LevelForStudents(studentCount)
		if newLevel <= user.LeadershipLevel {
			return nil
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("leadership_level", newLevel).
			Where(squirrel.And{
				squirrel.Eq{"id": userID},
				squirrel.Lt{"leadership_level": newLevel},
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update leadership level: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		bonus := promotionUnit.Mul(decimal.NewFromInt(int64(newLevel)))
		entry := &model.LedgerEntry{
			Type:      model.EntryPromotion,
			ToAccount: userID,
			Coins:     bonus,
			Reason:    fmt.Sprintf("Promotion to level %d", newLevel),
		}
		if err := r.appendEntryTx(ctx, tx, entry); err != nil {
			return err
		}

		promotion = &model.Promotion{
			UserID:       userID,
			OldLevel:     user.LeadershipLevel,
			NewLevel:     newLevel,
			Bonus:        bonus,
			StudentCount: studentCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return promotion, nil
}
