package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayOf(t *testing.T) {
	assert.Equal(t, uint64(0), DayOf(time.Unix(86399, 0)))
	assert.Equal(t, uint64(1), DayOf(time.Unix(86400, 0)))
	assert.Equal(t, uint64(19700), DayOf(time.Unix(19700*86400+3600, 0)))
	assert.Equal(t, uint64(0), DayOf(time.Unix(-5, 0)))

	// timezone does not matter
	loc := time.FixedZone("UTC+8", 8*3600)
	assert.Equal(t, DayOf(time.Unix(1_700_000_000, 0)), DayOf(time.Unix(1_700_000_000, 0).In(loc)))

	assert.Equal(t, time.Unix(86400*3, 0).UTC(), DayStart(3))
	assert.Equal(t, uint64(3), DayOfUnix(86400*3+1))
}

func TestMood(t *testing.T) {
	assert.True(t, MoodSad.Valid())
	assert.False(t, Mood("bored").Valid())
	assert.Equal(t, "emoji:happy", MoodHappy.Tag())
	assert.Equal(t, "", Mood("").Tag())
}

func TestParseImageTag(t *testing.T) {
	assert.Equal(t, ImageTagNone, ParseImageTag("").Kind)

	mood := ParseImageTag("emoji:angry")
	assert.Equal(t, ImageTagMood, mood.Kind)
	assert.Equal(t, MoodAngry, mood.Mood)

	stored := ParseImageTag("storage:diary/202610/18/x.jpg")
	assert.Equal(t, ImageTagStored, stored.Kind)
	assert.Equal(t, "diary/202610/18/x.jpg", stored.Key)

	inline := ParseImageTag("data:image/jpeg;base64,AAAA")
	assert.Equal(t, ImageTagInline, inline.Kind)
}

func TestWriteStage(t *testing.T) {
	assert.True(t, StageConfirmed.Terminal())
	assert.True(t, StageErrored.Terminal())
	assert.False(t, StagePending.Terminal())
	assert.True(t, StageConfirming.InFlight())
	assert.False(t, StageIdle.InFlight())
	assert.False(t, StageConfirmed.InFlight())
}
