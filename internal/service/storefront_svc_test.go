package service

import (
	"context"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/testutil"
)

var storefrontNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func seedLive(t *testing.T, env *testEnv, timer model.CountdownTimer) *model.CountdownTimer {
	t.Helper()
	timer.ShopID = env.shop.ID
	if timer.Status == "" {
		timer.Status = model.TimerStatusActive
	}
	return testutil.SeedTimer(t, env.db, &timer)
}

func TestStorefront_ProductOnlyNoCartFallback(t *testing.T) {
	env := newTestEnv(t)
	env.storefront.SetClock(func() time.Time { return storefrontNow })
	ctx := context.Background()

	product := seedLive(t, env, model.CountdownTimer{
		Name:     "pdp",
		Type:     model.TimerTypeFixed,
		EndAt:    testutil.TimePtr(storefrontNow.Add(time.Hour)),
		Position: model.PositionProductPage,
	})

	got := env.storefront.Select(ctx, testDomain, "product")
	require.NotNil(t, got)
	assert.Equal(t, product.ID, got.ID)

	assert.Nil(t, env.storefront.Select(ctx, testDomain, "cart"))
	assert.Nil(t, env.storefront.Select(ctx, testDomain, "default"))
}

func TestStorefront_TopBarServesEveryContext(t *testing.T) {
	env := newTestEnv(t)
	env.storefront.SetClock(func() time.Time { return storefrontNow })

	top := seedLive(t, env, model.CountdownTimer{
		Name:             "bar",
		Type:             model.TimerTypeEvergreen,
		EvergreenMinutes: testutil.IntPtr(15),
		Position:         model.PositionTopBar,
	})

	for _, pc := range []string{"default", "product", "cart", "", "checkout"} {
		got := env.storefront.Select(context.Background(), testDomain, pc)
		require.NotNil(t, got, "context %q", pc)
		assert.Equal(t, top.ID, got.ID)
	}
}

func TestStorefront_ExpiredFixedExcluded(t *testing.T) {
	env := newTestEnv(t)
	env.storefront.SetClock(func() time.Time { return storefrontNow })

	seedLive(t, env, model.CountdownTimer{
		Name:     "expired",
		Type:     model.TimerTypeFixed,
		EndAt:    testutil.TimePtr(storefrontNow.Add(-time.Minute)),
		Position: model.PositionTopBar,
	})

	for _, pc := range []string{"default", "product", "cart"} {
		assert.Nil(t, env.storefront.Select(context.Background(), testDomain, pc))
	}

	n, err := promtest.GatherAndCount(env.metrics.Registry(), "countdown_storefront_selections_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStorefront_NotStartedAndInactive(t *testing.T) {
	env := newTestEnv(t)
	env.storefront.SetClock(func() time.Time { return storefrontNow })

	seedLive(t, env, model.CountdownTimer{
		Name:     "future",
		Type:     model.TimerTypeFixed,
		StartAt:  testutil.TimePtr(storefrontNow.Add(time.Minute)),
		EndAt:    testutil.TimePtr(storefrontNow.Add(time.Hour)),
		Position: model.PositionTopBar,
	})
	seedLive(t, env, model.CountdownTimer{
		Name:             "off",
		Type:             model.TimerTypeEvergreen,
		EvergreenMinutes: testutil.IntPtr(10),
		Position:         model.PositionBottomBar,
		Status:           model.TimerStatusInactive,
	})

	assert.Nil(t, env.storefront.Select(context.Background(), testDomain, "default"))
}

func TestStorefront_PriorityWithinChain(t *testing.T) {
	env := newTestEnv(t)
	env.storefront.SetClock(func() time.Time { return storefrontNow })

	bottom := seedLive(t, env, model.CountdownTimer{
		Name:             "bottom",
		Type:             model.TimerTypeEvergreen,
		EvergreenMinutes: testutil.IntPtr(10),
		Position:         model.PositionBottomBar,
	})
	cart := seedLive(t, env, model.CountdownTimer{
		Name:     "cart",
		Type:     model.TimerTypeFixed,
		StartAt:  testutil.TimePtr(storefrontNow.Add(-time.Hour)),
		EndAt:    testutil.TimePtr(storefrontNow),
		Position: model.PositionCartPage,
	})

	ctx := context.Background()
	assert.Equal(t, cart.ID, env.storefront.Select(ctx, testDomain, "cart").ID, "endAt == now is still live")
	assert.Equal(t, bottom.ID, env.storefront.Select(ctx, testDomain, "product").ID)
	assert.Equal(t, bottom.ID, env.storefront.Select(ctx, testDomain, "default").ID)
}

func TestStorefront_UnknownOrEmptyShop(t *testing.T) {
	env := newTestEnv(t)
	assert.Nil(t, env.storefront.Select(context.Background(), "", "default"))
	assert.Nil(t, env.storefront.Select(context.Background(), "   ", "default"))
	assert.Nil(t, env.storefront.Select(context.Background(), "nobody.myshopify.com", "default"))
}

func TestPickTimer(t *testing.T) {
	now := storefrontNow
	mk := func(id int64, pos model.TimerPosition) model.CountdownTimer {
		timer := model.CountdownTimer{
			Type:             model.TimerTypeEvergreen,
			EvergreenMinutes: testutil.IntPtr(5),
			Position:         pos,
			Status:           model.TimerStatusActive,
		}
		timer.ID = id
		return timer
	}

	tests := []struct {
		name       string
		candidates []model.CountdownTimer
		pc         model.PageContext
		wantID     int64
	}{
		{"empty", nil, model.PageContextDefault, 0},
		{"product beats top", []model.CountdownTimer{mk(1, model.PositionTopBar), mk(2, model.PositionProductPage)}, model.PageContextProduct, 2},
		{"top beats bottom", []model.CountdownTimer{mk(1, model.PositionBottomBar), mk(2, model.PositionTopBar)}, model.PageContextCart, 2},
		{"default ignores page slots", []model.CountdownTimer{mk(1, model.PositionProductPage), mk(2, model.PositionCartPage)}, model.PageContextDefault, 0},
		{"first in bucket wins", []model.CountdownTimer{mk(5, model.PositionTopBar), mk(4, model.PositionTopBar)}, model.PageContextDefault, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickTimer(tt.candidates, tt.pc, now)
			if tt.wantID == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}
