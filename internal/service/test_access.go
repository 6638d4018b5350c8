package service

import (
	"context"
	"time"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"
)

// TestAccessGate 判断用户能否开始或继续测试。
// 自学测试与 EUMK 前置测试对所有人开放，其余测试需要讲师身份或未过期的解锁记录
type TestAccessGate struct {
	Principals PrincipalLookup
	Unlocks    UnlockStore
	Now        func() time.Time
}

func NewTestAccessGate(principals PrincipalLookup, unlocks UnlockStore) *TestAccessGate {
	return &TestAccessGate{
		Principals: principals,
		Unlocks:    unlocks,
		Now:        time.Now,
	}
}

func (g *TestAccessGate) CanAccess(ctx context.Context, test *model.Test, userID uint) (bool, error) {
	if !test.IsGated() {
		return true, nil
	}

	lecturer, err := g.Principals.IsLecturer(ctx, userID)
	if err != nil {
		return false, err
	}
	if lecturer {
		return true, nil
	}

	unlock, err := g.Unlocks.FindUnlock(ctx, test.ID, userID)
	if err != nil {
		return false, err
	}
	return unlock != nil && unlock.IsActive(g.Now()), nil
}

// Check 不允许访问时返回 ErrTestAccessDenied
func (g *TestAccessGate) Check(ctx context.Context, test *model.Test, userID uint) error {
	ok, err := g.CanAccess(ctx, test, userID)
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrTestAccessDenied
	}
	return nil
}
