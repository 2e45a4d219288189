package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"countdown_timer_v1/internal/api/dto"
	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/cache"
	"countdown_timer_v1/internal/metrics"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/repository"
	"countdown_timer_v1/internal/testutil"
)

const testDomain = "demo.myshopify.com"

// ==================== 测试辅助 ====================

type testEnv struct {
	db         *gorm.DB
	shop       *model.Shop
	metrics    *metrics.Metrics
	shops      *ShopService
	rules      *RuleEngine
	timers     *TimerService
	storefront *StorefrontService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	m := metrics.New()
	timerRepo := repository.NewTimerRepository(db)
	shops := NewShopService(repository.NewShopRepository(db), cache.NewNoopShopCache(), zerolog.Nop())
	rules := NewRuleEngine(timerRepo, shops, model.MaxTimersPerShop, m)

	return &testEnv{
		db:         db,
		shop:       testutil.SeedShop(t, db, testDomain),
		metrics:    m,
		shops:      shops,
		rules:      rules,
		timers:     NewTimerService(timerRepo, rules, zerolog.Nop()),
		storefront: NewStorefrontService(timerRepo, shops, m, zerolog.Nop()),
	}
}

func fixedReq(name string, pos model.TimerPosition, status model.TimerStatus) dto.CreateTimerReq {
	return dto.CreateTimerReq{
		Name:      name,
		Message:   "Sale ends soon",
		Type:      model.TimerTypeFixed,
		EndAt:     dto.At(time.Now().Add(time.Hour)),
		Position:  pos,
		BgColor:   "#000000",
		TextColor: "#FFFFFF",
		Status:    status,
	}
}

func evergreenReq(name string, pos model.TimerPosition, status model.TimerStatus, minutes int) dto.CreateTimerReq {
	return dto.CreateTimerReq{
		Name:             name,
		Message:          "Limited offer",
		Type:             model.TimerTypeEvergreen,
		EvergreenMinutes: &minutes,
		Position:         pos,
		Status:           status,
	}
}

func mustCreate(t *testing.T, env *testEnv, req dto.CreateTimerReq) *model.CountdownTimer {
	t.Helper()
	timer, err := env.timers.Create(context.Background(), testDomain, req)
	require.NoError(t, err)
	return timer
}

func requireCode(t *testing.T, err error, code apperror.Code) *apperror.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

// ==================== Create ====================

func TestTimerService_Create_Defaults(t *testing.T) {
	env := newTestEnv(t)

	req := fixedReq("  Black Friday  ", model.PositionTopBar, "")
	req.EvergreenMinutes = testutil.IntPtr(30)
	timer := mustCreate(t, env, req)

	assert.NotZero(t, timer.ID)
	assert.Equal(t, env.shop.ID, timer.ShopID)
	assert.Equal(t, "Black Friday", timer.Name)
	assert.Equal(t, model.TimerStatusInactive, timer.Status)
	assert.Nil(t, timer.EvergreenMinutes, "FIXED timers drop evergreenMinutes")
}

func TestTimerService_Create_NormalizesShopDomain(t *testing.T) {
	env := newTestEnv(t)

	timer, err := env.timers.Create(context.Background(), "https://DEMO/", fixedReq("a", model.PositionTopBar, ""))
	require.NoError(t, err)
	assert.Equal(t, env.shop.ID, timer.ShopID)
}

func TestTimerService_Create_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("blank name", func(t *testing.T) {
		_, err := env.timers.Create(ctx, testDomain, fixedReq("   ", model.PositionTopBar, ""))
		appErr := requireCode(t, err, apperror.CodeInvalidTimerConfig)
		assert.Equal(t, "name", appErr.Field)
	})

	t.Run("unknown shop", func(t *testing.T) {
		_, err := env.timers.Create(ctx, "other.myshopify.com", fixedReq("x", model.PositionTopBar, ""))
		requireCode(t, err, apperror.CodeShopNotFound)
	})

	t.Run("fixed without endAt", func(t *testing.T) {
		req := fixedReq("no-end", model.PositionTopBar, "")
		req.EndAt = dto.OptionalTime{}
		_, err := env.timers.Create(ctx, testDomain, req)
		appErr := requireCode(t, err, apperror.CodeInvalidTimerConfig)
		assert.Equal(t, "endAt", appErr.Field)
	})

	t.Run("startAt after endAt", func(t *testing.T) {
		req := fixedReq("inverted", model.PositionTopBar, "")
		req.StartAt = dto.At(time.Now().Add(2 * time.Hour))
		_, err := env.timers.Create(ctx, testDomain, req)
		appErr := requireCode(t, err, apperror.CodeInvalidTimerConfig)
		assert.Equal(t, "startAt", appErr.Field)
	})

	t.Run("evergreen zero minutes", func(t *testing.T) {
		_, err := env.timers.Create(ctx, testDomain, evergreenReq("zero", model.PositionTopBar, "", 0))
		appErr := requireCode(t, err, apperror.CodeInvalidTimerConfig)
		assert.Equal(t, "evergreenMinutes", appErr.Field)
	})

	t.Run("evergreen without minutes", func(t *testing.T) {
		req := evergreenReq("absent", model.PositionTopBar, "", 1)
		req.EvergreenMinutes = nil
		_, err := env.timers.Create(ctx, testDomain, req)
		requireCode(t, err, apperror.CodeInvalidTimerConfig)
	})

	// 以上拒绝均按错误码计数
	n, err := promtest.GatherAndCount(env.metrics.Registry(), "countdown_rule_violations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "two distinct codes: INVALID_TIMER_CONFIG and SHOP_NOT_FOUND")
}

func TestTimerService_Create_DuplicateName(t *testing.T) {
	env := newTestEnv(t)
	first := mustCreate(t, env, fixedReq("Summer", model.PositionTopBar, ""))

	_, err := env.timers.Create(context.Background(), testDomain, fixedReq(" Summer ", model.PositionBottomBar, ""))
	appErr := requireCode(t, err, apperror.CodeDuplicateName)
	require.NotNil(t, appErr.Conflicting)
	assert.Equal(t, first.ID, appErr.Conflicting.ID)
	assert.Equal(t, "Summer", appErr.Conflicting.Name)
}

func TestTimerService_Create_PositionConflict(t *testing.T) {
	env := newTestEnv(t)
	active := mustCreate(t, env, fixedReq("top-1", model.PositionTopBar, model.TimerStatusActive))

	_, err := env.timers.Create(context.Background(), testDomain, fixedReq("top-2", model.PositionTopBar, model.TimerStatusActive))
	appErr := requireCode(t, err, apperror.CodePositionConflict)
	assert.Equal(t, string(model.PositionTopBar), appErr.Position)
	assert.Equal(t, active.ID, appErr.Conflicting.ID)

	// INACTIVE 可以共用位置
	mustCreate(t, env, fixedReq("top-3", model.PositionTopBar, model.TimerStatusInactive))
}

func TestTimerService_Create_Capacity(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < model.MaxTimersPerShop; i++ {
		mustCreate(t, env, fixedReq(fmt.Sprintf("timer-%02d", i), model.PositionTopBar, ""))
	}

	_, err := env.timers.Create(context.Background(), testDomain, fixedReq("one-too-many", model.PositionTopBar, ""))
	appErr := requireCode(t, err, apperror.CodeCapacityExceeded)
	assert.Equal(t, model.MaxTimersPerShop, appErr.Limit)

	counts, err := env.timers.Counts(context.Background(), testDomain)
	require.NoError(t, err)
	assert.Equal(t, int64(model.MaxTimersPerShop), counts.Total)
}

// ==================== Edit ====================

func TestTimerService_Edit_MergesPatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	timer := mustCreate(t, env, fixedReq("Launch", model.PositionTopBar, ""))

	msg := "New copy"
	updated, err := env.timers.Edit(ctx, testDomain, timer.ID, dto.EditTimerReq{Message: &msg})
	require.NoError(t, err)
	assert.Equal(t, "New copy", updated.Message)
	assert.Equal(t, "Launch", updated.Name)
	require.NotNil(t, updated.EndAt, "unspecified fields keep their value")

	// 切换为 EVERGREEN，日期字段被清除
	typ := model.TimerTypeEvergreen
	updated, err = env.timers.Edit(ctx, testDomain, timer.ID, dto.EditTimerReq{
		Type:             &typ,
		EvergreenMinutes: testutil.IntPtr(45),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TimerTypeEvergreen, updated.Type)
	assert.Nil(t, updated.EndAt)
	assert.Nil(t, updated.StartAt)

	reloaded, err := env.timers.GetByID(ctx, testDomain, timer.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, *reloaded.EvergreenMinutes)
	assert.Nil(t, reloaded.EndAt)
}

func TestTimerService_Edit_ValidatesMergedRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	timer := mustCreate(t, env, fixedReq("Launch", model.PositionTopBar, ""))

	// 显式 null 清空 endAt，合并后 FIXED 缺少 endAt
	_, err := env.timers.Edit(ctx, testDomain, timer.ID, dto.EditTimerReq{EndAt: dto.Null()})
	appErr := requireCode(t, err, apperror.CodeInvalidTimerConfig)
	assert.Equal(t, "endAt", appErr.Field)

	// 只改类型不给分钟数
	typ := model.TimerTypeEvergreen
	_, err = env.timers.Edit(ctx, testDomain, timer.ID, dto.EditTimerReq{Type: &typ})
	requireCode(t, err, apperror.CodeInvalidTimerConfig)

	blank := "  "
	_, err = env.timers.Edit(ctx, testDomain, timer.ID, dto.EditTimerReq{Name: &blank})
	requireCode(t, err, apperror.CodeInvalidTimerConfig)
}

func TestTimerService_Edit_NameAndPosition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := mustCreate(t, env, fixedReq("A", model.PositionTopBar, model.TimerStatusActive))
	b := mustCreate(t, env, fixedReq("B", model.PositionBottomBar, model.TimerStatusActive))

	// 保持自己的名字不算重名
	same := "A"
	_, err := env.timers.Edit(ctx, testDomain, a.ID, dto.EditTimerReq{Name: &same})
	require.NoError(t, err)

	taken := " B "
	_, err = env.timers.Edit(ctx, testDomain, a.ID, dto.EditTimerReq{Name: &taken})
	requireCode(t, err, apperror.CodeDuplicateName)

	// 移到已被占用的位置
	pos := model.PositionBottomBar
	_, err = env.timers.Edit(ctx, testDomain, a.ID, dto.EditTimerReq{Position: &pos})
	appErr := requireCode(t, err, apperror.CodePositionConflict)
	assert.Equal(t, b.ID, appErr.Conflicting.ID)

	// 自身所在位置不冲突
	own := model.PositionTopBar
	_, err = env.timers.Edit(ctx, testDomain, a.ID, dto.EditTimerReq{Position: &own})
	require.NoError(t, err)
}

func TestTimerService_Edit_NotFound(t *testing.T) {
	env := newTestEnv(t)
	msg := "x"
	_, err := env.timers.Edit(context.Background(), testDomain, 999, dto.EditTimerReq{Message: &msg})
	requireCode(t, err, apperror.CodeTimerNotFound)
}

// ==================== Toggle / ForceActivate ====================

func TestTimerService_ToggleStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := mustCreate(t, env, fixedReq("A", model.PositionTopBar, ""))
	b := mustCreate(t, env, fixedReq("B", model.PositionTopBar, ""))

	got, err := env.timers.ToggleStatus(ctx, testDomain, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TimerStatusActive, got.Status)

	_, err = env.timers.ToggleStatus(ctx, testDomain, b.ID)
	appErr := requireCode(t, err, apperror.CodePositionConflict)
	assert.Equal(t, a.ID, appErr.Conflicting.ID)

	// 两次切换回到原状态
	got, err = env.timers.ToggleStatus(ctx, testDomain, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TimerStatusInactive, got.Status)

	got, err = env.timers.ToggleStatus(ctx, testDomain, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TimerStatusActive, got.Status)
}

func TestTimerService_ForceActivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := mustCreate(t, env, fixedReq("A", model.PositionTopBar, model.TimerStatusActive))
	b := mustCreate(t, env, fixedReq("B", model.PositionTopBar, model.TimerStatusInactive))
	other := mustCreate(t, env, fixedReq("C", model.PositionCartPage, model.TimerStatusActive))

	got, err := env.timers.ForceActivate(ctx, testDomain, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TimerStatusActive, got.Status)

	reloadedA, err := env.timers.GetByID(ctx, testDomain, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TimerStatusInactive, reloadedA.Status)

	reloadedC, err := env.timers.GetByID(ctx, testDomain, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TimerStatusActive, reloadedC.Status, "other positions are untouched")

	_, err = env.timers.ForceActivate(ctx, testDomain, 12345)
	requireCode(t, err, apperror.CodeTimerNotFound)
}

// ==================== Delete / Get / Counts ====================

func TestTimerService_DeleteAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	timer := mustCreate(t, env, fixedReq("A", model.PositionTopBar, ""))

	// 另一家店看不到
	testutil.SeedShop(t, env.db, "rival.myshopify.com")
	_, err := env.timers.GetByID(ctx, "rival.myshopify.com", timer.ID)
	requireCode(t, err, apperror.CodeTimerNotFound)
	_, err = env.timers.Delete(ctx, "rival.myshopify.com", timer.ID)
	requireCode(t, err, apperror.CodeTimerNotFound)

	resp, err := env.timers.Delete(ctx, testDomain, timer.ID)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, timer.ID, resp.DeletedID)

	_, err = env.timers.GetByID(ctx, testDomain, timer.ID)
	requireCode(t, err, apperror.CodeTimerNotFound)
}

func TestTimerService_Counts(t *testing.T) {
	env := newTestEnv(t)
	mustCreate(t, env, fixedReq("A", model.PositionTopBar, model.TimerStatusActive))
	mustCreate(t, env, fixedReq("B", model.PositionBottomBar, model.TimerStatusActive))
	mustCreate(t, env, fixedReq("C", model.PositionTopBar, ""))

	counts, err := env.timers.Counts(context.Background(), testDomain)
	require.NoError(t, err)
	assert.Equal(t, dto.TimerCountsResp{Active: 2, Inactive: 1, Total: 3}, *counts)
}

// ==================== List ====================

func TestTimerService_List(t *testing.T) {
	env := newTestEnv(t)
	mustCreate(t, env, fixedReq("first", model.PositionTopBar, ""))
	second := mustCreate(t, env, fixedReq("second", model.PositionTopBar, ""))

	list, err := env.timers.List(context.Background(), testDomain)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "most recently created first")
}

func TestTimerService_ListPaginated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		mustCreate(t, env, fixedReq(fmt.Sprintf("t-%02d", i), model.PositionTopBar, ""))
	}

	tests := []struct {
		name      string
		query     dto.TimerListQuery
		wantPage  int
		wantSize  int
		wantItems int
		wantPages int
		wantOrder string
	}{
		{"defaults", dto.TimerListQuery{}, 1, 10, 10, 2, DefaultOrderBy},
		{"size clamps to 50", dto.TimerListQuery{Size: "1000"}, 1, 50, 12, 1, DefaultOrderBy},
		{"size clamps to 5", dto.TimerListQuery{Size: "1", Page: "0"}, 1, 5, 5, 3, DefaultOrderBy},
		{"last page", dto.TimerListQuery{Size: "5", Page: "3", OrderBy: "name:asc"}, 3, 5, 2, 3, "name:asc"},
		{"page past end", dto.TimerListQuery{Size: "5", Page: "9"}, 9, 5, 0, 3, DefaultOrderBy},
		{"non-numeric", dto.TimerListQuery{Size: "abc", Page: "x"}, 1, 10, 10, 2, DefaultOrderBy},
		{"unknown fields dropped", dto.TimerListQuery{OrderBy: "bogus:asc,name:DESC"}, 1, 10, 10, 2, "name:desc"},
		{"all unknown", dto.TimerListQuery{OrderBy: "bogus:asc"}, 1, 10, 10, 2, DefaultOrderBy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.timers.ListPaginated(ctx, testDomain, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, resp.Page)
			assert.Equal(t, tt.wantSize, resp.Size)
			assert.Len(t, resp.Items, tt.wantItems)
			assert.Equal(t, int64(12), resp.TotalItems)
			assert.Equal(t, tt.wantPages, resp.TotalPages)
			assert.Equal(t, tt.wantOrder, resp.OrderBy)
		})
	}

	resp, err := env.timers.ListPaginated(ctx, testDomain, dto.TimerListQuery{Size: "5", Page: "3", OrderBy: "name:asc"})
	require.NoError(t, err)
	assert.Equal(t, "t-10", resp.Items[0].Name)
	assert.Equal(t, "t-11", resp.Items[1].Name)
}

func TestTimerService_ListPaginated_EmptyShop(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.timers.ListPaginated(context.Background(), testDomain, dto.TimerListQuery{Page: "1"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalPages)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestTimerService_ResetShop(t *testing.T) {
	env := newTestEnv(t)
	mustCreate(t, env, fixedReq("A", model.PositionTopBar, ""))
	mustCreate(t, env, fixedReq("B", model.PositionTopBar, ""))

	n, err := env.timers.ResetShop(context.Background(), testDomain)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
