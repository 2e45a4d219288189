package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countdown_timer_v1/internal/cache"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/repository"
	"countdown_timer_v1/internal/service"
	"countdown_timer_v1/internal/testutil"
)

// ==================== 测试辅助 ====================

// useSQLiteEnv 命令走文件型 SQLite，多个命令之间共享数据
func useSQLiteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "countdown.db"))
	t.Setenv("DATABASE_LOG_LEVEL", "silent")
	t.Setenv("REDIS_ADDR", "")
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

// ==================== 命令 ====================

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "countdown", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed", "audit"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestSeedCommand_RequiresShop(t *testing.T) {
	useSQLiteEnv(t)
	_, err := runCommand(t, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shop")
}

func TestCommands_MigrateSeedAudit(t *testing.T) {
	useSQLiteEnv(t)

	_, err := runCommand(t, "migrate")
	require.NoError(t, err)

	out, err := runCommand(t, "seed", "--shop", "demo", "--count", "16")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 16 countdown timers for demo.myshopify.com")

	out, err = runCommand(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "installed shops: 1")
	assert.Contains(t, out, "ok")
}

func TestMigrateCommand_InvalidDriver(t *testing.T) {
	useSQLiteEnv(t)
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := runCommand(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}

// ==================== Seed ====================

func TestSeed(t *testing.T) {
	db := testutil.NewTestDB(t)
	timerRepo := repository.NewTimerRepository(db)
	shops := service.NewShopService(repository.NewShopRepository(db), cache.NewNoopShopCache(), zerolog.Nop())
	rules := service.NewRuleEngine(timerRepo, shops, model.MaxTimersPerShop, nil)
	timers := service.NewTimerService(timerRepo, rules, zerolog.Nop())
	ctx := context.Background()

	result, err := Seed(ctx, shops, timers, "https://Demo.myshopify.com/", 16, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", result.Shop)
	assert.EqualValues(t, 0, result.Removed)
	assert.Equal(t, 16, result.Created)
	assert.Equal(t, 4, result.Active, "one ACTIVE timer per position")

	list, err := timers.List(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Len(t, list, 16)

	active := map[model.TimerPosition]int{}
	for _, timer := range list {
		if timer.Status == model.TimerStatusActive {
			active[timer.Position]++
		}
		switch timer.Type {
		case model.TimerTypeFixed:
			assert.NotNil(t, timer.EndAt, timer.Name)
			assert.Nil(t, timer.EvergreenMinutes, timer.Name)
		case model.TimerTypeEvergreen:
			assert.Nil(t, timer.EndAt, timer.Name)
			assert.NotNil(t, timer.EvergreenMinutes, timer.Name)
		}
	}
	for pos, n := range active {
		assert.Equal(t, 1, n, pos)
	}

	// 再次执行会先清空
	result, err = Seed(ctx, shops, timers, "demo", 3, zerolog.Nop())
	require.NoError(t, err)
	assert.EqualValues(t, 16, result.Removed)
	assert.Equal(t, 3, result.Created)
}

func TestSeed_OverCapacity(t *testing.T) {
	db := testutil.NewTestDB(t)
	timerRepo := repository.NewTimerRepository(db)
	shops := service.NewShopService(repository.NewShopRepository(db), nil, zerolog.Nop())
	timers := service.NewTimerService(timerRepo, service.NewRuleEngine(timerRepo, shops, 5, nil), zerolog.Nop())

	result, err := Seed(context.Background(), shops, timers, "demo", 6, zerolog.Nop())
	require.Error(t, err)
	assert.Equal(t, 5, result.Created)
}

func TestSeedTimer(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := seedTimer(0, now)
	assert.Equal(t, "Demo countdown #1", first.Name)
	assert.Equal(t, model.TimerTypeFixed, first.Type)
	assert.Equal(t, model.PositionTopBar, first.Position)
	assert.Equal(t, model.TimerStatusInactive, first.Status)
	assert.Equal(t, now, first.StartAt.Time)
	assert.Equal(t, now.Add(3*time.Hour), first.EndAt.Time)
	assert.Equal(t, "#111827", first.BgColor)

	second := seedTimer(1, now)
	assert.Equal(t, model.TimerTypeEvergreen, second.Type)
	assert.Equal(t, model.PositionBottomBar, second.Position)
	assert.Equal(t, model.TimerStatusActive, second.Status)
	require.NotNil(t, second.EvergreenMinutes)
	assert.Equal(t, 13, *second.EvergreenMinutes)
	assert.False(t, second.EndAt.Set)

	sixth := seedTimer(5, now)
	assert.Equal(t, "#111827", sixth.BgColor, "palette cycles every five")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", false)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	buf.Reset()
	logger = newLogger(&buf, "nonsense", false)
	logger.Debug().Msg("debug")
	logger.Info().Msg("info")
	assert.NotContains(t, buf.String(), `"debug"`)
	assert.Contains(t, buf.String(), `"info"`)
}
