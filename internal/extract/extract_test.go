package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectExerciseType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"今天跑步5公里", "running"},
		{"晨跑很舒服", "running"},
		{"散步了半小时", "walking"},
		{"骑车上班", "cycling"},
		{"游泳1000米", "swimming"},
		{"跳绳15分钟", "rope_skipping"},
		{"做了瑜伽", "yoga"},
		{"去健身房撸铁", "gym"},
		{"打了羽毛球", "badminton"},
		{"went for a 5km run", "running"},
		{"看了会儿电视", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectExerciseType(tt.text), tt.text)
	}
}

func TestParseDistanceKm(t *testing.T) {
	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"跑步5公里", 5, true},
		{"跑了3.5千米", 3.5, true},
		{"ran 10km today", 10, true},
		{"游泳1000米", 1, true},
		{"跑步很久", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDistanceKm(tt.text)
		require.Equal(t, tt.ok, ok, tt.text)
		if ok {
			assert.InDelta(t, tt.want, got, 0.001, tt.text)
		}
	}
}

func TestParseDurationMin(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"散步30分钟", 30, true},
		{"跑了1小时", 60, true},
		{"walked for 45 min", 45, true},
		{"练了1.5个小时", 90, true},
		{"散步半小时", 30, true},
		{"拉伸一刻钟", 15, true},
		{"练了2刻钟", 30, true},
		{"跑了一会儿", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDurationMin(tt.text)
		require.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestParseExercise(t *testing.T) {
	fact := ParseExercise("今天跑步5公里用了30分钟")
	assert.Equal(t, "running", fact.ExerciseType)
	require.NotNil(t, fact.DistanceKm)
	assert.Equal(t, 5.0, *fact.DistanceKm)
	require.NotNil(t, fact.DurationMin)
	assert.Equal(t, 30, *fact.DurationMin)
	assert.True(t, fact.HasQuantity())

	vague := ParseExercise("今天运动了")
	assert.Equal(t, "other", vague.ExerciseType)
	assert.False(t, vague.HasQuantity())
}

func TestDistancePriced(t *testing.T) {
	assert.True(t, DistancePriced("running"))
	assert.True(t, DistancePriced("swimming"))
	assert.False(t, DistancePriced("yoga"))
	assert.False(t, DistancePriced("climbing"))
	assert.False(t, DistancePriced("other"))
}
