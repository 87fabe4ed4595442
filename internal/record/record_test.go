package record

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendMealLabels(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewDailyRecord("u1", "2026-03-01", now)

	first := rec.AppendMeal(SlotLunch, "一碗米饭", now)
	assert.Equal(t, 0, first.SequenceIndex)
	assert.Equal(t, "eaten", rec.Slot(SlotLunch).StatusLabel)

	second := rec.AppendMeal(SlotLunch, "一个苹果", now.Add(10*time.Minute))
	assert.Equal(t, 1, second.SequenceIndex)
	assert.Equal(t, "eaten ×2", rec.Slot(SlotLunch).StatusLabel)

	require.Len(t, rec.Slot(SlotLunch).Entries, 2)
	assert.Equal(t, "一碗米饭", rec.Slot(SlotLunch).Entries[0].Description)
}

func TestAppendExerciseNewestFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := NewDailyRecord("u1", "2026-03-01", now)

	km := 5.0
	rec.AppendExercise("跑步5公里", "running", &km, nil, now)
	rec.AppendExercise("散步30分钟", "walking", nil, intp(30), now.Add(time.Hour))

	require.Len(t, rec.Exercise.Entries, 2)
	assert.Equal(t, "walking", rec.Exercise.Entries[0].ExerciseType)
	assert.Equal(t, "done ×2", rec.Exercise.StatusLabel)
	assert.Equal(t, RecordPendingCalories, rec.Exercise.Entries[0].RecordStatus)

	e, ok := rec.ExerciseEntryAt(0)
	require.True(t, ok)
	assert.Equal(t, "散步30分钟", e.Description)
	_, ok = rec.ExerciseEntryAt(2)
	assert.False(t, ok)
}

func TestConversationLogCaps(t *testing.T) {
	now := time.Now()
	rec := NewDailyRecord("u1", "2026-03-01", now)

	long := strings.Repeat("好", 600)
	rec.AddMessage("user", long, now)
	require.Len(t, rec.ConversationLog, 1)
	assert.Equal(t, 500, len([]rune(rec.ConversationLog[0].Content)))

	for i := 0; i < 150; i++ {
		rec.AddMessage("user", "hi", now)
	}
	assert.Len(t, rec.ConversationLog, 100)
}

func TestSetSummaryWriteOnce(t *testing.T) {
	rec := NewDailyRecord("u1", "2026-03-01", time.Now())
	assert.True(t, rec.SetSummary("first", false))
	assert.False(t, rec.SetSummary("second", false))
	assert.Equal(t, "first", rec.Summary)
	assert.True(t, rec.SetSummary("forced", true))
	assert.Equal(t, "forced", rec.Summary)
}

func TestDetectMealSlot(t *testing.T) {
	tests := []struct {
		name string
		text string
		hour int
		want string
	}{
		{"explicit breakfast keyword", "我早餐吃了包子", 20, SlotBreakfast},
		{"explicit late night", "宵夜来了份烧烤", 9, SlotLateNight},
		{"morning hour fallback", "吃了面条", 8, SlotBreakfast},
		{"noon hour fallback", "吃了面条", 12, SlotLunch},
		{"evening hour fallback", "吃了面条", 19, SlotDinner},
		{"midnight fallback", "吃了面条", 23, SlotLateNight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 3, 1, tt.hour, 0, 0, 0, time.UTC)
			assert.Equal(t, tt.want, DetectMealSlot(tt.text, now))
		})
	}
}

func TestHydration(t *testing.T) {
	now := time.Now()
	rec := NewDailyRecord("u1", "2026-03-01", now)
	assert.Equal(t, DefaultHydrationTarget, rec.Hydration.TargetCups)

	assert.Equal(t, 1, rec.AddCup(now))
	assert.Equal(t, 2, rec.AddCup(now))
	rec.SetCups(5, now)
	assert.Equal(t, 5, rec.Hydration.CurrentCups)
	rec.SetCups(-1, now)
	assert.Equal(t, 0, rec.Hydration.CurrentCups)
	assert.Len(t, rec.Hydration.History, 4)
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	rec, err := store.Load(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", rec.Date)

	rec.AppendMeal(SlotBreakfast, "豆浆油条", time.Now())
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "eaten", got.Slot(SlotBreakfast).StatusLabel)

	missing, err := store.Get(ctx, "u1", "2026-03-02")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFileStoreCorruptFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	userDir := filepath.Join(dir, "u1")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "2026-03-01.json"), []byte("{not json"), 0o644))

	rec, err := store.Load(context.Background(), "u1", "2026-03-01")
	require.NoError(t, err)
	assert.Empty(t, rec.ConversationLog)
	assert.Equal(t, "not done", rec.Slot(SlotLunch).StatusLabel)
}

func TestFileStorePrevious(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	for _, d := range []string{"2026-02-26", "2026-02-28", "2026-03-01"} {
		rec := NewDailyRecord("u1", d, time.Now())
		require.NoError(t, store.Save(ctx, rec))
	}

	prev, err := store.Previous(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "2026-02-28", prev.Date)

	none, err := store.Previous(ctx, "u1", "2026-02-26")
	require.NoError(t, err)
	assert.Nil(t, none)

	unknown, err := store.Previous(ctx, "nobody", "2026-03-01")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func intp(v int) *int { return &v }
