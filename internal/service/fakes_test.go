package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"
)

type pairKey struct{ testID, userID uint }

// fakeStore 内存实现，覆盖服务层依赖的全部仓储接口
type fakeStore struct {
	mu        sync.Mutex
	nextID    uint
	tests     map[uint]model.Test
	questions map[uint]model.Question
	users     map[uint]model.User
	subjects  map[uint]model.Subject
	opened    map[[2]uint]bool // (subject, group)
	slots     []model.AnswerOnTestQuestion
	results   map[pairKey]model.TestPassResult
	unlocks   map[pairKey]model.TestUnlock
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1000,
		tests:     make(map[uint]model.Test),
		questions: make(map[uint]model.Question),
		users:     make(map[uint]model.User),
		subjects:  make(map[uint]model.Subject),
		opened:    make(map[[2]uint]bool),
		results:   make(map[pairKey]model.TestPassResult),
		unlocks:   make(map[pairKey]model.TestUnlock),
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addUser(id uint, name string, role model.UserRole, groupID *uint) {
	u := model.User{Name: name, Role: role, GroupID: groupID}
	u.ID = id
	f.users[id] = u
}

func (f *fakeStore) addSubject(id uint, openTo ...uint) {
	sub := model.Subject{Name: "subject"}
	sub.ID = id
	f.subjects[id] = sub
	for _, g := range openTo {
		f.opened[[2]uint{id, g}] = true
	}
}

func (f *fakeStore) addTest(t model.Test) {
	f.tests[t.ID] = t
}

func (f *fakeStore) addQuestion(testID, id uint, qt model.QuestionType, complexity int, answers ...model.Answer) {
	q := model.Question{TestID: testID, QuestionType: qt, ComplexityLevel: complexity}
	q.ID = id
	for i := range answers {
		answers[i].QuestionID = id
	}
	q.Answers = answers
	f.questions[id] = q
}

func (f *fakeStore) addUnlock(testID, studentID uint, expiresAt *time.Time) {
	u := model.TestUnlock{TestID: testID, StudentID: studentID, ExpiresAt: expiresAt}
	u.ID = f.id()
	f.unlocks[pairKey{testID, studentID}] = u
}

func answer(id uint, content string, indicator int) model.Answer {
	a := model.Answer{Content: content, CorrectnessIndicator: indicator}
	a.ID = id
	return a
}

// TestCatalog

func (f *fakeStore) GetTest(_ context.Context, id uint) (*model.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tests[id]
	if !ok {
		return nil, util.ErrTestNotFound
	}
	return &t, nil
}

func (f *fakeStore) GetQuestion(_ context.Context, id uint) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return nil, util.ErrQuestionNotFound
	}
	q.Answers = append([]model.Answer(nil), q.Answers...)
	return &q, nil
}

func (f *fakeStore) GetQuestionsForTest(_ context.Context, testID uint) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var qs []model.Question
	for _, q := range f.questions {
		if q.TestID == testID {
			q.Answers = nil
			qs = append(qs, q)
		}
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
	return qs, nil
}

func (f *fakeStore) GetAnswer(_ context.Context, id uint) (*model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		for _, a := range q.Answers {
			if a.ID == id {
				return &a, nil
			}
		}
	}
	return nil, util.ErrAnswerNotFound
}

func (f *fakeStore) GetTestsForSubject(_ context.Context, subjectID uint) ([]model.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ts []model.Test
	for _, t := range f.tests {
		if t.SubjectID == subjectID {
			ts = append(ts, t)
		}
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
	return ts, nil
}

// SubjectDirectory

func (f *fakeStore) GetSubject(_ context.Context, id uint) (*model.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subjects[id]
	if !ok {
		return nil, util.ErrSubjectNotFound
	}
	return &sub, nil
}

func (f *fakeStore) IsSubjectOpenToGroup(_ context.Context, subjectID, groupID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened[[2]uint{subjectID, groupID}], nil
}

// PrincipalLookup

func (f *fakeStore) FindByID(_ context.Context, id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeStore) IsLecturer(ctx context.Context, userID uint) (bool, error) {
	u, err := f.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsLecturer(), nil
}

func (f *fakeStore) ListStudentsByGroup(_ context.Context, groupID uint) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var us []model.User
	for _, u := range f.users {
		if u.Role == model.Student && u.GroupID != nil && *u.GroupID == groupID {
			us = append(us, u)
		}
	}
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })
	return us, nil
}

// SlotStore

func (f *fakeStore) filterSlots(keep func(s model.AnswerOnTestQuestion) bool) []model.AnswerOnTestQuestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AnswerOnTestQuestion
	for _, s := range f.slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TestID != out[j].TestID {
			return out[i].TestID < out[j].TestID
		}
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		if out[i].Attempt != out[j].Attempt {
			return out[i].Attempt < out[j].Attempt
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func (f *fakeStore) ActiveSlots(_ context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error) {
	return f.filterSlots(func(s model.AnswerOnTestQuestion) bool {
		return s.TestID == testID && s.UserID == userID && !s.TestEnded
	}), nil
}

func (f *fakeStore) EndedSlots(_ context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error) {
	ended := f.filterSlots(func(s model.AnswerOnTestQuestion) bool {
		return s.TestID == testID && s.UserID == userID && s.TestEnded
	})
	last := 0
	for _, s := range ended {
		if s.Attempt > last {
			last = s.Attempt
		}
	}
	var out []model.AnswerOnTestQuestion
	for _, s := range ended {
		if s.Attempt == last {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) ActiveSlotsForTests(_ context.Context, testIDs []uint) ([]model.AnswerOnTestQuestion, error) {
	wanted := make(map[uint]bool, len(testIDs))
	for _, id := range testIDs {
		wanted[id] = true
	}
	return f.filterSlots(func(s model.AnswerOnTestQuestion) bool {
		return wanted[s.TestID] && !s.TestEnded
	}), nil
}

func (f *fakeStore) LatestActiveSlotForQuestion(_ context.Context, userID, questionID uint) (*model.AnswerOnTestQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.AnswerOnTestQuestion
	for i := range f.slots {
		s := f.slots[i]
		if s.UserID == userID && s.QuestionID == questionID && !s.TestEnded &&
			(latest == nil || s.ID > latest.ID) {
			latest = &s
		}
	}
	return latest, nil
}

func (f *fakeStore) CreateSlots(_ context.Context, slots []model.AnswerOnTestQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range slots {
		for _, existing := range f.slots {
			if existing.TestID == slots[i].TestID && existing.UserID == slots[i].UserID &&
				existing.Attempt == slots[i].Attempt && existing.Number == slots[i].Number {
				return fmt.Errorf("duplicate slot %d in attempt %d", slots[i].Number, slots[i].Attempt)
			}
		}
		slots[i].ID = f.id()
		f.slots = append(f.slots, slots[i])
	}
	return nil
}

func (f *fakeStore) SaveSlots(_ context.Context, slots []model.AnswerOnTestQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range slots {
		found := false
		for i := range f.slots {
			if f.slots[i].ID == s.ID {
				f.slots[i] = s
				found = true
			}
		}
		if !found {
			return fmt.Errorf("slot %d not stored", s.ID)
		}
	}
	return nil
}

func (f *fakeStore) DeleteActiveSlots(_ context.Context, testID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.slots[:0]
	for _, s := range f.slots {
		if s.TestID == testID && s.UserID == userID && !s.TestEnded {
			continue
		}
		kept = append(kept, s)
	}
	f.slots = kept
	return nil
}

// PassResultStore

func (f *fakeStore) FindPassResult(_ context.Context, testID, studentID uint) (*model.TestPassResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[pairKey{testID, studentID}]
	if !ok {
		return nil, util.ErrPassResultNotFound
	}
	return &r, nil
}

func (f *fakeStore) SavePassResult(_ context.Context, res *model.TestPassResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res.ID == 0 {
		res.ID = f.id()
	}
	f.results[pairKey{res.TestID, res.StudentID}] = *res
	return nil
}

func (f *fakeStore) ListPassResults(_ context.Context, studentIDs, testIDs []uint) ([]model.TestPassResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	students := make(map[uint]bool)
	for _, id := range studentIDs {
		students[id] = true
	}
	tests := make(map[uint]bool)
	for _, id := range testIDs {
		tests[id] = true
	}
	var out []model.TestPassResult
	for _, r := range f.results {
		if students[r.StudentID] && tests[r.TestID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentID != out[j].StudentID {
			return out[i].StudentID < out[j].StudentID
		}
		return out[i].TestID < out[j].TestID
	})
	return out, nil
}

// UnlockStore

func (f *fakeStore) FindUnlock(_ context.Context, testID, studentID uint) (*model.TestUnlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.unlocks[pairKey{testID, studentID}]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeStore) DeleteUnlock(_ context.Context, unlock *model.TestUnlock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.unlocks, pairKey{unlock.TestID, unlock.StudentID})
	return nil
}

func (f *fakeStore) ListUnlocksForTests(_ context.Context, testIDs []uint) ([]model.TestUnlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uint]bool)
	for _, id := range testIDs {
		wanted[id] = true
	}
	var out []model.TestUnlock
	for _, u := range f.unlocks {
		if !wanted[u.TestID] {
			continue
		}
		if st, ok := f.users[u.StudentID]; ok {
			u.Student = &st
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Transactor

func (f *fakeStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// identityShuffler 保持原有顺序
type identityShuffler struct{}

func (identityShuffler) Shuffle(int, func(i, j int)) {}

// reverseShuffler 逆序排列
type reverseShuffler struct{}

func (reverseShuffler) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

type fixture struct {
	store *fakeStore
	svc   *TestPassingService
	now   time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store: newFakeStore(),
		now:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	s := f.store
	f.svc = NewTestPassingService(s, s, s, s, s, s, NewLocalSessionLocker())
	f.svc.Shuffler = identityShuffler{}
	f.svc.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func selectOne(id uint) []model.SubmittedAnswer {
	return []model.SubmittedAnswer{{ID: id, CorrectnessIndicator: 1}}
}
