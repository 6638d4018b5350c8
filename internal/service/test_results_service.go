package service

import (
	"context"
	"time"

	"lmp_backend/internal/model"
	"lmp_backend/pkg/logger"
	"lmp_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TestResultsService 只读的成绩汇总，数据允许与进行中的会话短暂不一致
type TestResultsService struct {
	Catalog    TestCatalog
	Subjects   SubjectDirectory
	Principals PrincipalLookup
	Slots      SlotStore
	Results    PassResultStore
	Unlocks    UnlockStore
	Cache      ResultsCache // 可为空
	Now        func() time.Time
}

func NewTestResultsService(
	catalog TestCatalog,
	subjects SubjectDirectory,
	principals PrincipalLookup,
	slots SlotStore,
	results PassResultStore,
	unlocks UnlockStore,
	cache ResultsCache,
) *TestResultsService {
	return &TestResultsService{
		Catalog:    catalog,
		Subjects:   subjects,
		Principals: principals,
		Slots:      slots,
		Results:    results,
		Unlocks:    unlocks,
		Cache:      cache,
		Now:        time.Now,
	}
}

// subjectTests 学科不存在时返回 util.ErrSubjectNotFound
func (s *TestResultsService) subjectTests(ctx context.Context, subjectID uint) ([]model.Test, error) {
	if _, err := s.Subjects.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return s.Catalog.GetTestsForSubject(ctx, subjectID)
}

// CheckForSubjectAvailableForStudent 学生所在小组是否开设该学科
func (s *TestResultsService) CheckForSubjectAvailableForStudent(ctx context.Context, studentID, subjectID uint) (bool, error) {
	if _, err := s.Subjects.GetSubject(ctx, subjectID); err != nil {
		return false, err
	}
	student, err := s.Principals.FindByID(ctx, studentID)
	if err != nil {
		return false, err
	}
	if student.GroupID == nil {
		return false, nil
	}
	return s.Subjects.IsSubjectOpenToGroup(ctx, subjectID, *student.GroupID)
}

// GetPointsForQuestion 用户在进行中的尝试里该题的得分；未作答或没有进行中的尝试时为 nil
func (s *TestResultsService) GetPointsForQuestion(ctx context.Context, userID, questionID uint) (*int, error) {
	slot, err := s.Slots.LatestActiveSlotForQuestion(ctx, userID, questionID)
	if err != nil || slot == nil {
		return nil, err
	}
	return slot.Points, nil
}

func (s *TestResultsService) GetTestPassingTime(ctx context.Context, testID, studentID uint) (*model.TestPassResult, error) {
	return s.Results.FindPassResult(ctx, testID, studentID)
}

// GetStudentResults 学生在某学科下所有测试的成绩
func (s *TestResultsService) GetStudentResults(ctx context.Context, subjectID, studentID uint) ([]model.TestPassResult, error) {
	tests, err := s.subjectTests(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	results, err := s.Results.ListPassResults(ctx, []uint{studentID}, testIDs(tests))
	if err != nil {
		return nil, err
	}

	names := testNames(tests)
	for i := range results {
		results[i].TestName = names[results[i].TestID]
	}
	return results, nil
}

// GetAverageMarkForTests 小组内每个学生在该学科下的平均成绩；没有成绩的学生为 nil
func (s *TestResultsService) GetAverageMarkForTests(ctx context.Context, groupID, subjectID uint) (map[uint]*float64, error) {
	students, err := s.Principals.ListStudentsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	tests, err := s.subjectTests(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	results, err := s.Results.ListPassResults(ctx, userIDs(students), testIDs(tests))
	if err != nil {
		return nil, err
	}

	sums := make(map[uint]int)
	counts := make(map[uint]int)
	for _, r := range results {
		if r.Points == nil {
			continue
		}
		sums[r.StudentID] += *r.Points
		counts[r.StudentID]++
	}

	averages := make(map[uint]*float64, len(students))
	for _, st := range students {
		if counts[st.ID] == 0 {
			averages[st.ID] = nil
			continue
		}
		avg := float64(sums[st.ID]) / float64(counts[st.ID])
		averages[st.ID] = &avg
	}
	return averages, nil
}

// GetRealTimePassingResults 学科下每个有效解锁对应学生的实时答题状态
func (s *TestResultsService) GetRealTimePassingResults(ctx context.Context, subjectID uint) ([]model.RealTimePassingResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "TestResultsService.GetRealTimePassingResults",
		trace.WithAttributes(attribute.Int64("subject.id", int64(subjectID))))
	defer span.End()

	if s.Cache != nil {
		if cached, ok := s.Cache.Get(ctx, subjectID); ok {
			return cached, nil
		}
	}

	tests, err := s.subjectTests(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	ids := testIDs(tests)
	byID := make(map[uint]*model.Test, len(tests))
	for i := range tests {
		byID[tests[i].ID] = &tests[i]
	}

	unlocks, err := s.Unlocks.ListUnlocksForTests(ctx, ids)
	if err != nil {
		return nil, err
	}
	slots, err := s.Slots.ActiveSlotsForTests(ctx, ids)
	if err != nil {
		return nil, err
	}

	type sessionKey struct{ testID, userID uint }
	sessions := make(map[sessionKey][]model.AnswerOnTestQuestion)
	for _, sl := range slots {
		k := sessionKey{sl.TestID, sl.UserID}
		sessions[k] = append(sessions[k], sl)
	}

	now := s.Now()
	var studentIDs []uint
	for _, u := range unlocks {
		if u.IsActive(now) {
			studentIDs = append(studentIDs, u.StudentID)
		}
	}
	passResults, err := s.Results.ListPassResults(ctx, studentIDs, ids)
	if err != nil {
		return nil, err
	}
	starts := make(map[sessionKey]*model.TestPassResult, len(passResults))
	for i := range passResults {
		starts[sessionKey{passResults[i].TestID, passResults[i].StudentID}] = &passResults[i]
	}

	results := make([]model.RealTimePassingResult, 0, len(unlocks))
	for _, u := range unlocks {
		if !u.IsActive(now) {
			continue
		}
		test := byID[u.TestID]
		if test == nil {
			continue
		}

		k := sessionKey{u.TestID, u.StudentID}
		session := sessions[k]
		row := model.RealTimePassingResult{
			StudentID:   u.StudentID,
			TestID:      u.TestID,
			TestName:    test.Title,
			PassResults: make([]model.QuestionStatus, 0, len(session)),
		}
		if u.Student != nil {
			row.StudentName = u.Student.Name
		}
		for i := range session {
			row.PassResults = append(row.PassResults, session[i].Status())
		}
		if res := starts[k]; res != nil && hasUnanswered(session) {
			row.TimeExpired = testTimeExpired(test, res, now)
		}
		results = append(results, row)
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, subjectID, results)
	}
	logger.Log.Debug("Real-time passing results computed",
		zap.Uint("subjectID", subjectID),
		zap.Int("rows", len(results)))
	return results, nil
}

// GetAvailableTestsForStudent 自学测试总是可用；其他测试需要有效解锁，且为 NN 测试或不属于 EUMK 类测试
func (s *TestResultsService) GetAvailableTestsForStudent(ctx context.Context, studentID, subjectID uint) ([]model.Test, error) {
	tests, err := s.subjectTests(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	unlocks, err := s.Unlocks.ListUnlocksForTests(ctx, testIDs(tests))
	if err != nil {
		return nil, err
	}

	now := s.Now()
	unlocked := make(map[uint]bool)
	for _, u := range unlocks {
		if u.StudentID == studentID && u.IsActive(now) {
			unlocked[u.TestID] = true
		}
	}

	available := make([]model.Test, 0, len(tests))
	for _, t := range tests {
		switch {
		case t.ForSelfStudy:
			available = append(available, t)
		case (t.ForNN || !(t.ForEUMK || t.BeforeEUMK)) && unlocked[t.ID]:
			available = append(available, t)
		}
	}
	return available, nil
}

// GetPassTestResults 小组成绩表：每个学生一行，列为组内任一学生有成绩的测试
func (s *TestResultsService) GetPassTestResults(ctx context.Context, groupID, subjectID uint) ([]model.StudentPassResults, error) {
	students, err := s.Principals.ListStudentsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	tests, err := s.subjectTests(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	results, err := s.Results.ListPassResults(ctx, userIDs(students), testIDs(tests))
	if err != nil {
		return nil, err
	}

	type cell struct{ testID, studentID uint }
	byCell := make(map[cell]model.TestPassResult, len(results))
	taken := make(map[uint]bool)
	for _, r := range results {
		byCell[cell{r.TestID, r.StudentID}] = r
		taken[r.TestID] = true
	}

	table := make([]model.StudentPassResults, 0, len(students))
	for _, st := range students {
		row := model.StudentPassResults{StudentID: st.ID, StudentName: st.Name}
		for _, t := range tests {
			if !taken[t.ID] {
				continue
			}
			r, ok := byCell[cell{t.ID, st.ID}]
			if !ok {
				r = model.TestPassResult{TestID: t.ID, StudentID: st.ID}
			}
			r.TestName = t.Title
			row.Results = append(row.Results, r)
		}
		table = append(table, row)
	}
	return table, nil
}

// GetEndedAnswers 最近一次已结束尝试的作答记录
func (s *TestResultsService) GetEndedAnswers(ctx context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error) {
	return s.Slots.EndedSlots(ctx, testID, userID)
}

func testIDs(tests []model.Test) []uint {
	ids := make([]uint, len(tests))
	for i, t := range tests {
		ids[i] = t.ID
	}
	return ids
}

func testNames(tests []model.Test) map[uint]string {
	names := make(map[uint]string, len(tests))
	for _, t := range tests {
		names[t.ID] = t.Title
	}
	return names
}

func userIDs(users []model.User) []uint {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
