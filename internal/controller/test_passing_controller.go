package controller

import (
	"lmp_backend/internal/model"
	"lmp_backend/internal/service"
	"lmp_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestPassingController struct {
	Service *service.TestPassingService
}

func NewTestPassingController(svc *service.TestPassingService) *TestPassingController {
	return &TestPassingController{Service: svc}
}

// AnswerDTO 不包含正确性标记
type AnswerDTO struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
}

type QuestionDTO struct {
	ID           uint        `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	QuestionType string      `json:"questionType"`
	Complexity   int         `json:"complexityLevel"`
	Answers      []AnswerDTO `json:"answers,omitempty"`
}

type NextQuestionDTO struct {
	Completed         bool           `json:"completed"`
	Question          *QuestionDTO   `json:"question,omitempty"`
	Number            int            `json:"number,omitempty"`
	Seconds           int            `json:"seconds"`
	QuestionsStatuses map[int]string `json:"questionsStatuses"`
	Mark              *int           `json:"mark,omitempty"`
	Percent           *int           `json:"percent,omitempty"`
	SetTimeForAllTest bool           `json:"setTimeForAllTest"`
	ForSelfStudy      bool           `json:"forSelfStudy"`
}

type SlotDTO struct {
	Number int    `json:"number"`
	Status string `json:"status"`
}

// SubmitAnswerReq answers 为 null 或缺省表示跳过该题
type SubmitAnswerReq struct {
	Number  int                     `json:"number" binding:"required,min=1"`
	Answers []model.SubmittedAnswer `json:"answers"`
}

func toQuestionDTO(q *model.Question) *QuestionDTO {
	dto := &QuestionDTO{
		ID:           q.ID,
		Title:        q.Title,
		Description:  q.Description,
		QuestionType: q.QuestionType.String(),
		Complexity:   q.ComplexityLevel,
	}
	// 文本题的答案即标准答案，不下发
	if q.QuestionType == model.TextAnswer {
		return dto
	}
	for _, a := range q.Answers {
		dto.Answers = append(dto.Answers, AnswerDTO{ID: a.ID, Content: a.Content})
	}
	return dto
}

func toNextQuestionDTO(r *model.NextQuestionResult) *NextQuestionDTO {
	dto := &NextQuestionDTO{
		Completed:         r.Completed(),
		Number:            r.Number,
		Seconds:           r.Seconds,
		QuestionsStatuses: make(map[int]string, len(r.QuestionsStatuses)),
		Mark:              r.Mark,
		Percent:           r.Percent,
		SetTimeForAllTest: r.SetTimeForAllTest,
		ForSelfStudy:      r.ForSelfStudy,
	}
	for n, s := range r.QuestionsStatuses {
		dto.QuestionsStatuses[n] = s.String()
	}
	if r.Question != nil {
		dto.Question = toQuestionDTO(r.Question)
	}
	return dto
}

// @Summary 检查测试访问权限
// @Tags 答题模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/tests/{id}/access [get]
func (c *TestPassingController) CanAccess(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	testID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	allowed, err := c.Service.CanAccess(ctx.Request.Context(), testID, user.UserID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"allowed": allowed})
}

// @Summary 获取下一题
// @Description 不存在进行中的尝试时自动开始新的尝试；全部作答后返回成绩
// @Tags 答题模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Param number query int false "题号" default(1)
// @Success 200 {object} util.Response
// @Router /api/tests/{id}/question [get]
func (c *TestPassingController) GetNextQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	testID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid test id")
		return
	}
	number := util.IntQuery(ctx.Query("number"), 1)

	result, err := c.Service.GetNextQuestion(ctx.Request.Context(), testID, user.UserID, number)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, toNextQuestionDTO(result))
}

// @Summary 提交答案
// @Tags 答题模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Param body body SubmitAnswerReq true "答案"
// @Success 200 {object} util.Response
// @Router /api/tests/{id}/answers [post]
func (c *TestPassingController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	testID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	var req SubmitAnswerReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitAnswer(ctx.Request.Context(), testID, user.UserID, req.Number, req.Answers)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, toNextQuestionDTO(result))
}

// @Summary 重新开始测试
// @Description 放弃当前未完成的尝试
// @Tags 答题模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/tests/{id}/restart [post]
func (c *TestPassingController) RestartTest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	testID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	slots, err := c.Service.RestartTest(ctx.Request.Context(), testID, user.UserID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, toSlotDTOs(slots))
}

// @Summary 获取当前尝试的题目状态
// @Tags 答题模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/tests/{id}/slots [get]
func (c *TestPassingController) GetActiveSlots(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	testID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	slots, err := c.Service.GetActiveSlots(ctx.Request.Context(), testID, user.UserID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, toSlotDTOs(slots))
}

func toSlotDTOs(slots []model.AnswerOnTestQuestion) []SlotDTO {
	out := make([]SlotDTO, len(slots))
	for i := range slots {
		out[i] = SlotDTO{Number: slots[i].Number, Status: slots[i].Status().String()}
	}
	return out
}
