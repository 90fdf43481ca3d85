package service

import (
	"context"
	"errors"
	"testing"

	"go_lms_hub/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func enrollStudent(t *testing.T, db *gorm.DB, userID, courseID uuid.UUID) {
	t.Helper()
	enrollment := &model.Enrollment{
		EnrollmentID: uuid.New(),
		UserID:       userID,
		CourseID:     courseID,
		Status:       model.EnrollmentActive,
	}
	require.NoError(t, db.Create(enrollment).Error)
}

func storedCourse(t *testing.T, db *gorm.DB, courseID uuid.UUID) *model.Course {
	t.Helper()
	var course model.Course
	require.NoError(t, db.First(&course, "course_id = ?", courseID).Error)
	return &course
}

func Test_reviewService_CreateReview(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 受講者はレビューを投稿でき評価が再集計される", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)
		enrollStudent(t, db, student.ProfileID, course.CourseID)

		review, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{
			Rating:  5,
			Comment: "とても良いコースでした",
		})

		require.NoError(t, err)
		assert.Equal(t, 5, review.Rating)

		stored := storedCourse(t, db, course.CourseID)
		assert.Equal(t, 5.0, stored.AverageRating)
		assert.Equal(t, 1, stored.ReviewCount)
	})

	t.Run("正常系: 評価 [5,3,4] の平均は 4.0 件数は 3", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)

		for _, rating := range []int{5, 3, 4} {
			student := createTestProfile(t, db, model.RoleStudent)
			enrollStudent(t, db, student.ProfileID, course.CourseID)
			_, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: rating})
			require.NoError(t, err)
		}

		stored := storedCourse(t, db, course.CourseID)
		assert.Equal(t, 4.0, stored.AverageRating)
		assert.Equal(t, 3, stored.ReviewCount)
	})

	t.Run("異常系: 未受講のコースへの投稿は ErrForbidden になる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)

		_, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: 4})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrForbidden))

		var appErr *model.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "NOT_ENROLLED", appErr.Detail.Code)
	})

	t.Run("異常系: 同一コースへの2件目の投稿は ErrConflict になる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)
		enrollStudent(t, db, student.ProfileID, course.CourseID)

		_, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: 5})
		require.NoError(t, err)

		_, err = svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrConflict))

		// 集計は1件目のまま
		stored := storedCourse(t, db, course.CourseID)
		assert.Equal(t, 5.0, stored.AverageRating)
		assert.Equal(t, 1, stored.ReviewCount)
	})

	t.Run("異常系: 未公開コースへの投稿は ErrNotFound になる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		course := createTestCourse(t, db, instructor.ProfileID, false, 1)
		enrollStudent(t, db, student.ProfileID, course.CourseID)

		_, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: 4})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func Test_reviewService_UpdateReview(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 投稿者本人が評価を変更すると平均も変わる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)
		enrollStudent(t, db, student.ProfileID, course.CourseID)

		review, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: 5})
		require.NoError(t, err)

		newRating := 2
		updated, err := svc.UpdateReview(ctx, student.ProfileID, course.Slug, review.ReviewID, &model.UpdateReviewRequest{Rating: &newRating})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Rating)

		stored := storedCourse(t, db, course.CourseID)
		assert.Equal(t, 2.0, stored.AverageRating)
		assert.Equal(t, 1, stored.ReviewCount)
	})

	t.Run("正常系: 管理者は他人のレビューを変更できる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		admin := createTestProfile(t, db, model.RoleAdmin)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)
		enrollStudent(t, db, student.ProfileID, course.CourseID)

		review, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: 1, Comment: "不適切なコメント"})
		require.NoError(t, err)

		comment := ""
		_, err = svc.UpdateReview(ctx, admin.ProfileID, course.Slug, review.ReviewID, &model.UpdateReviewRequest{Comment: &comment})
		require.NoError(t, err)
	})

	t.Run("異常系: 第三者の変更は ErrForbidden になる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		other := createTestProfile(t, db, model.RoleStudent)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)
		enrollStudent(t, db, student.ProfileID, course.CourseID)

		review, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: 4})
		require.NoError(t, err)

		newRating := 1
		_, err = svc.UpdateReview(ctx, other.ProfileID, course.Slug, review.ReviewID, &model.UpdateReviewRequest{Rating: &newRating})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrForbidden))
	})
}

func Test_reviewService_DeleteReview(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 最後のレビューを削除すると平均0件数0に戻る", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)
		enrollStudent(t, db, student.ProfileID, course.CourseID)

		review, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: 5})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteReview(ctx, student.ProfileID, course.Slug, review.ReviewID))

		stored := storedCourse(t, db, course.CourseID)
		assert.Equal(t, 0.0, stored.AverageRating)
		assert.Equal(t, 0, stored.ReviewCount)
	})

	t.Run("異常系: 存在しないレビューIDは ErrNotFound になる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		student := createTestProfile(t, db, model.RoleStudent)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)
		enrollStudent(t, db, student.ProfileID, course.CourseID)

		err := svc.DeleteReview(ctx, student.ProfileID, course.Slug, uuid.New())
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func Test_reviewService_ListReviews(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: レビューは作成日時の降順で返る", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		course := createTestCourse(t, db, instructor.ProfileID, true, 1)

		for _, rating := range []int{3, 4} {
			student := createTestProfile(t, db, model.RoleStudent)
			enrollStudent(t, db, student.ProfileID, course.CourseID)
			_, err := svc.CreateReview(ctx, student.ProfileID, course.Slug, &model.CreateReviewRequest{Rating: rating})
			require.NoError(t, err)
		}

		reviews, err := svc.ListReviews(ctx, course.Slug, 10, 0)
		require.NoError(t, err)
		assert.Len(t, reviews, 2)
	})

	t.Run("異常系: 未公開コースの一覧は ErrNotFound になる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestReviewService(db)
		instructor := createTestProfile(t, db, model.RoleInstructor)
		course := createTestCourse(t, db, instructor.ProfileID, false, 1)

		_, err := svc.ListReviews(ctx, course.Slug, 10, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}
