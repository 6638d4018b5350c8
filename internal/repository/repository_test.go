package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"
	"lmp_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接独立，限制为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedTest(t *testing.T, db *gorm.DB) (*model.Test, []model.Question) {
	t.Helper()
	test := &model.Test{SubjectID: 1, Title: "Go basics", CountOfQuestions: 2}
	require.NoError(t, db.Create(test).Error)

	questions := []model.Question{
		{TestID: test.ID, Title: "q1", ComplexityLevel: 1},
		{TestID: test.ID, Title: "q2", ComplexityLevel: 2, QuestionType: model.SequenceAnswer},
	}
	require.NoError(t, db.Create(&questions).Error)

	answers := []model.Answer{
		{QuestionID: questions[1].ID, Content: "first", CorrectnessIndicator: 1},
		{QuestionID: questions[1].ID, Content: "second", CorrectnessIndicator: 2},
	}
	require.NoError(t, db.Create(&answers).Error)
	return test, questions
}

func TestTestRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestRepository(db)
	ctx := context.Background()
	test, questions := seedTest(t, db)

	got, err := repo.GetTest(ctx, test.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go basics", got.Title)
	assert.Len(t, got.Questions, 2)

	_, err = repo.GetTest(ctx, 9999)
	assert.ErrorIs(t, err, util.ErrTestNotFound)

	q, err := repo.GetQuestion(ctx, questions[1].ID)
	require.NoError(t, err)
	require.Len(t, q.Answers, 2)
	assert.Equal(t, "first", q.Answers[0].Content)
	assert.Equal(t, "second", q.Answers[1].Content)

	_, err = repo.GetQuestion(ctx, 9999)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	list, err := repo.GetQuestionsForTest(ctx, test.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	a, err := repo.GetAnswer(ctx, q.Answers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, questions[1].ID, a.QuestionID)

	_, err = repo.GetAnswer(ctx, 9999)
	assert.ErrorIs(t, err, util.ErrAnswerNotFound)

	tests, err := repo.GetTestsForSubject(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tests, 1)
}

func TestAnswerOnTestQuestionRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnswerOnTestQuestionRepository(db)
	ctx := context.Background()
	test, questions := seedTest(t, db)

	now := time.Now()
	points := 1
	ended := []model.AnswerOnTestQuestion{
		{TestID: test.ID, UserID: 5, Attempt: 1, Number: 1, QuestionID: questions[0].ID, Points: &points, Time: &now, TestEnded: true},
		{TestID: test.ID, UserID: 5, Attempt: 2, Number: 1, QuestionID: questions[1].ID, Points: &points, Time: &now, TestEnded: true},
	}
	require.NoError(t, repo.CreateSlots(ctx, ended))

	active := []model.AnswerOnTestQuestion{
		{TestID: test.ID, UserID: 5, Attempt: 3, Number: 2, QuestionID: questions[1].ID},
		{TestID: test.ID, UserID: 5, Attempt: 3, Number: 1, QuestionID: questions[0].ID},
	}
	require.NoError(t, repo.CreateSlots(ctx, active))

	t.Run("active slots ordered by number", func(t *testing.T) {
		slots, err := repo.ActiveSlots(ctx, test.ID, 5)
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, 1, slots[0].Number)
		assert.Equal(t, 2, slots[1].Number)
	})

	t.Run("ended slots come from the last attempt", func(t *testing.T) {
		slots, err := repo.EndedSlots(ctx, test.ID, 5)
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, 2, slots[0].Attempt)

		none, err := repo.EndedSlots(ctx, test.ID, 6)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("duplicate number within attempt rejected", func(t *testing.T) {
		dup := []model.AnswerOnTestQuestion{{TestID: test.ID, UserID: 5, Attempt: 3, Number: 1, QuestionID: questions[0].ID}}
		assert.Error(t, repo.CreateSlots(ctx, dup))
	})

	t.Run("save persists answer", func(t *testing.T) {
		slots, err := repo.ActiveSlots(ctx, test.ID, 5)
		require.NoError(t, err)
		slots[0].Points = &points
		slots[0].Time = &now
		slots[0].AnswerString = "x"
		require.NoError(t, repo.SaveSlots(ctx, slots[:1]))

		reloaded, err := repo.ActiveSlots(ctx, test.ID, 5)
		require.NoError(t, err)
		assert.True(t, reloaded[0].IsAnswered())
		assert.Equal(t, "x", reloaded[0].AnswerString)
	})

	t.Run("latest active slot for question", func(t *testing.T) {
		slot, err := repo.LatestActiveSlotForQuestion(ctx, 5, questions[0].ID)
		require.NoError(t, err)
		require.NotNil(t, slot)
		assert.False(t, slot.TestEnded)
		assert.Equal(t, 3, slot.Attempt)
		require.NotNil(t, slot.Points)

		unanswered, err := repo.LatestActiveSlotForQuestion(ctx, 5, questions[1].ID)
		require.NoError(t, err)
		require.NotNil(t, unanswered)
		assert.Nil(t, unanswered.Points)

		none, err := repo.LatestActiveSlotForQuestion(ctx, 6, questions[0].ID)
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("for tests", func(t *testing.T) {
		slots, err := repo.ActiveSlotsForTests(ctx, []uint{test.ID})
		require.NoError(t, err)
		assert.Len(t, slots, 2)

		empty, err := repo.ActiveSlotsForTests(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete keeps ended attempts", func(t *testing.T) {
		require.NoError(t, repo.DeleteActiveSlots(ctx, test.ID, 5))

		slots, err := repo.ActiveSlots(ctx, test.ID, 5)
		require.NoError(t, err)
		assert.Empty(t, slots)

		endedSlots, err := repo.EndedSlots(ctx, test.ID, 5)
		require.NoError(t, err)
		assert.Len(t, endedSlots, 1)

		// 删除后同一序号可以重新创建
		again := []model.AnswerOnTestQuestion{{TestID: test.ID, UserID: 5, Attempt: 3, Number: 1, QuestionID: questions[0].ID}}
		assert.NoError(t, repo.CreateSlots(ctx, again))
	})
}

func TestTestPassResultRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestPassResultRepository(db)
	ctx := context.Background()

	_, err := repo.FindPassResult(ctx, 1, 5)
	assert.ErrorIs(t, err, util.ErrPassResultNotFound)

	mark := 7
	res := &model.TestPassResult{TestID: 1, StudentID: 5, Attempt: 1, StartTime: time.Now(), Points: &mark}
	require.NoError(t, repo.SavePassResult(ctx, res))

	res.Attempt = 2
	require.NoError(t, repo.SavePassResult(ctx, res))

	got, err := repo.FindPassResult(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempt)
	require.NotNil(t, got.Points)
	assert.Equal(t, 7, *got.Points)

	// 同一学生同一测试只有一条记录
	assert.Error(t, db.Create(&model.TestPassResult{TestID: 1, StudentID: 5}).Error)

	list, err := repo.ListPassResults(ctx, []uint{5, 6}, []uint{1})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := repo.ListPassResults(ctx, nil, []uint{1})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTestUnlockRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestUnlockRepository(db)
	ctx := context.Background()
	test, _ := seedTest(t, db)

	student := &model.User{Name: "Ann", Email: "ann@example.com", Role: model.Student}
	require.NoError(t, db.Create(student).Error)

	u, err := repo.FindUnlock(ctx, test.ID, student.ID)
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, repo.CreateUnlock(ctx, &model.TestUnlock{TestID: test.ID, StudentID: student.ID}))

	list, err := repo.ListUnlocksForTests(ctx, []uint{test.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Student)
	assert.Equal(t, "Ann", list[0].Student.Name)
	require.NotNil(t, list[0].Test)
	assert.Equal(t, "Go basics", list[0].Test.Title)

	u, err = repo.FindUnlock(ctx, test.ID, student.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NoError(t, repo.DeleteUnlock(ctx, u))

	u, err = repo.FindUnlock(ctx, test.ID, student.ID)
	require.NoError(t, err)
	assert.Nil(t, u)

	// 物理删除后可以重新解锁
	assert.NoError(t, repo.CreateUnlock(ctx, &model.TestUnlock{TestID: test.ID, StudentID: student.ID}))
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	group := uint(3)
	users := []model.User{
		{Name: "Bob", Email: "bob@example.com", Role: model.Student, GroupID: &group},
		{Name: "Ann", Email: "ann@example.com", Role: model.Student, GroupID: &group},
		{Name: "Tom", Email: "tom@example.com", Role: model.Teacher, GroupID: &group},
		{Name: "Eve", Email: "eve@example.com", Role: model.Student},
	}
	require.NoError(t, db.Create(&users).Error)

	students, err := repo.ListStudentsByGroup(ctx, group)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ann", students[0].Name)
	assert.Equal(t, "Bob", students[1].Name)

	isLecturer, err := repo.IsLecturer(ctx, users[2].ID)
	require.NoError(t, err)
	assert.True(t, isLecturer)

	isLecturer, err = repo.IsLecturer(ctx, users[0].ID)
	require.NoError(t, err)
	assert.False(t, isLecturer)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestTransactor(t *testing.T) {
	db := newTestDB(t)
	tx := NewTransactor(db)
	results := NewTestPassResultRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.Transaction(ctx, func(ctx context.Context) error {
		if err := results.SavePassResult(ctx, &model.TestPassResult{TestID: 1, StudentID: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = results.FindPassResult(ctx, 1, 1)
	assert.ErrorIs(t, err, util.ErrPassResultNotFound, "rolled back")

	err = tx.Transaction(ctx, func(ctx context.Context) error {
		// 嵌套调用复用外层事务
		return tx.Transaction(ctx, func(ctx context.Context) error {
			return results.SavePassResult(ctx, &model.TestPassResult{TestID: 1, StudentID: 2})
		})
	})
	require.NoError(t, err)

	_, err = results.FindPassResult(ctx, 1, 2)
	assert.NoError(t, err)
}

func TestSubjectRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	subject := &model.Subject{Name: "Algorithms", ShortName: "ALG"}
	require.NoError(t, db.Create(subject).Error)
	require.NoError(t, db.Create(&model.SubjectGroup{SubjectID: subject.ID, GroupID: 7}).Error)

	got, err := repo.GetSubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, "ALG", got.ShortName)

	_, err = repo.GetSubject(ctx, subject.ID+1)
	assert.ErrorIs(t, err, util.ErrSubjectNotFound)

	open, err := repo.IsSubjectOpenToGroup(ctx, subject.ID, 7)
	require.NoError(t, err)
	assert.True(t, open)

	open, err = repo.IsSubjectOpenToGroup(ctx, subject.ID, 8)
	require.NoError(t, err)
	assert.False(t, open)

	// 同一学科与小组只能关联一次
	assert.Error(t, db.Create(&model.SubjectGroup{SubjectID: subject.ID, GroupID: 7}).Error)
}
