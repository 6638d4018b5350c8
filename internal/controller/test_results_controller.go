package controller

import (
	"lmp_backend/internal/service"
	"lmp_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestResultsController struct {
	Service *service.TestResultsService
}

func NewTestResultsController(svc *service.TestResultsService) *TestResultsController {
	return &TestResultsController{Service: svc}
}

// @Summary 获取本人测试计时信息
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/tests/{id}/passing-time [get]
func (c *TestResultsController) GetMyPassingTime(ctx *gin.Context) {
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

	res, err := c.Service.GetTestPassingTime(ctx.Request.Context(), testID, user.UserID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// @Summary 获取本人上一次已完成尝试的作答记录
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/tests/{id}/ended-answers [get]
func (c *TestResultsController) GetMyEndedAnswers(ctx *gin.Context) {
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

	slots, err := c.Service.GetEndedAnswers(ctx.Request.Context(), testID, user.UserID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, slots)
}

// @Summary 获取本人在学科下的成绩
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response
// @Router /api/subjects/{id}/results [get]
func (c *TestResultsController) GetMyResults(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	subjectID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid subject id")
		return
	}

	results, err := c.Service.GetStudentResults(ctx.Request.Context(), subjectID, user.UserID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, results)
}

// @Summary 获取本人可参加的测试
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response
// @Router /api/subjects/{id}/available-tests [get]
func (c *TestResultsController) GetAvailableTests(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	subjectID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid subject id")
		return
	}

	tests, err := c.Service.GetAvailableTestsForStudent(ctx.Request.Context(), user.UserID, subjectID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, tests)
}

// @Summary 学生测试计时信息（教师）
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Param studentId path int true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/tests/{id}/students/{studentId}/passing-time [get]
func (c *TestResultsController) GetStudentPassingTime(ctx *gin.Context) {
	testID, ok1 := util.ParseUintParam(ctx.Param("id"))
	studentID, ok2 := util.ParseUintParam(ctx.Param("studentId"))
	if !ok1 || !ok2 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	res, err := c.Service.GetTestPassingTime(ctx.Request.Context(), testID, studentID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// @Summary 学生上一次已完成尝试的作答记录（教师）
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Param studentId path int true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/tests/{id}/students/{studentId}/ended-answers [get]
func (c *TestResultsController) GetStudentEndedAnswers(ctx *gin.Context) {
	testID, ok1 := util.ParseUintParam(ctx.Param("id"))
	studentID, ok2 := util.ParseUintParam(ctx.Param("studentId"))
	if !ok1 || !ok2 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	slots, err := c.Service.GetEndedAnswers(ctx.Request.Context(), testID, studentID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, slots)
}

// @Summary 实时答题看板
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/subjects/{id}/realtime [get]
func (c *TestResultsController) GetRealTimePassingResults(ctx *gin.Context) {
	subjectID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid subject id")
		return
	}

	rows, err := c.Service.GetRealTimePassingResults(ctx.Request.Context(), subjectID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, rows)
}

// @Summary 小组平均成绩
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param groupId path int true "小组ID"
// @Param subjectId path int true "学科ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/groups/{groupId}/subjects/{subjectId}/average-marks [get]
func (c *TestResultsController) GetAverageMarks(ctx *gin.Context) {
	groupID, ok1 := util.ParseUintParam(ctx.Param("groupId"))
	subjectID, ok2 := util.ParseUintParam(ctx.Param("subjectId"))
	if !ok1 || !ok2 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	averages, err := c.Service.GetAverageMarkForTests(ctx.Request.Context(), groupID, subjectID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, averages)
}

// @Summary 小组成绩表
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param groupId path int true "小组ID"
// @Param subjectId path int true "学科ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/groups/{groupId}/subjects/{subjectId}/results [get]
func (c *TestResultsController) GetGroupResults(ctx *gin.Context) {
	groupID, ok1 := util.ParseUintParam(ctx.Param("groupId"))
	subjectID, ok2 := util.ParseUintParam(ctx.Param("subjectId"))
	if !ok1 || !ok2 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	table, err := c.Service.GetPassTestResults(ctx.Request.Context(), groupID, subjectID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, table)
}

// @Summary 检查本人所在小组是否开设该学科
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response
// @Router /api/subjects/{id}/availability [get]
func (c *TestResultsController) CheckSubjectAvailable(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	subjectID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid subject id")
		return
	}

	available, err := c.Service.CheckForSubjectAvailableForStudent(ctx.Request.Context(), user.UserID, subjectID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"available": available})
}

// @Summary 获取本人进行中尝试里某题的得分
// @Tags 成绩模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions/{id}/points [get]
func (c *TestResultsController) GetQuestionPoints(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	questionID, ok := util.ParseUintParam(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	points, err := c.Service.GetPointsForQuestion(ctx.Request.Context(), user.UserID, questionID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"points": points})
}
