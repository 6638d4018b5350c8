package service

import (
	"context"
	"math/rand"
	"sync"

	"lmp_backend/internal/model"
)

// TestCatalog 测试、题目与答案的只读视图
type TestCatalog interface {
	GetTest(ctx context.Context, id uint) (*model.Test, error)
	GetQuestion(ctx context.Context, id uint) (*model.Question, error)
	GetQuestionsForTest(ctx context.Context, testID uint) ([]model.Question, error)
	GetAnswer(ctx context.Context, id uint) (*model.Answer, error)
	GetTestsForSubject(ctx context.Context, subjectID uint) ([]model.Test, error)
}

// SubjectDirectory 学科及其开放小组；GetSubject 未找到时返回 util.ErrSubjectNotFound
type SubjectDirectory interface {
	GetSubject(ctx context.Context, id uint) (*model.Subject, error)
	IsSubjectOpenToGroup(ctx context.Context, subjectID, groupID uint) (bool, error)
}

type PrincipalLookup interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	IsLecturer(ctx context.Context, userID uint) (bool, error)
	ListStudentsByGroup(ctx context.Context, groupID uint) ([]model.User, error)
}

type SlotStore interface {
	ActiveSlots(ctx context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error)
	EndedSlots(ctx context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error)
	ActiveSlotsForTests(ctx context.Context, testIDs []uint) ([]model.AnswerOnTestQuestion, error)
	LatestActiveSlotForQuestion(ctx context.Context, userID, questionID uint) (*model.AnswerOnTestQuestion, error)
	CreateSlots(ctx context.Context, slots []model.AnswerOnTestQuestion) error
	SaveSlots(ctx context.Context, slots []model.AnswerOnTestQuestion) error
	DeleteActiveSlots(ctx context.Context, testID, userID uint) error
}

type PassResultStore interface {
	FindPassResult(ctx context.Context, testID, studentID uint) (*model.TestPassResult, error)
	SavePassResult(ctx context.Context, res *model.TestPassResult) error
	ListPassResults(ctx context.Context, studentIDs, testIDs []uint) ([]model.TestPassResult, error)
}

// UnlockStore FindUnlock 未找到时返回 nil, nil
type UnlockStore interface {
	FindUnlock(ctx context.Context, testID, studentID uint) (*model.TestUnlock, error)
	DeleteUnlock(ctx context.Context, unlock *model.TestUnlock) error
	ListUnlocksForTests(ctx context.Context, testIDs []uint) ([]model.TestUnlock, error)
}

// Transactor 在 fn 返回 nil 时提交，否则回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Shuffler 随机源，测试中可替换为确定性实现
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandShuffler 返回并发安全的随机源
func NewRandShuffler(seed int64) Shuffler {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
