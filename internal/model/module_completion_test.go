package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyAttemptFirstTry(t *testing.T) {
	m := &ModuleCompletion{CompletionStatus: StatusNotStarted}

	m.ApplyAttempt(30, false)

	assert.Equal(t, 1, m.Attempts)
	assert.Equal(t, 30, m.XPEarned)
	assert.Equal(t, 30, m.BestScore)
	assert.Equal(t, StatusInProgress, m.CompletionStatus)
}

func TestApplyAttemptCompletedIsSticky(t *testing.T) {
	m := &ModuleCompletion{CompletionStatus: StatusNotStarted}

	m.ApplyAttempt(50, true)
	assert.Equal(t, StatusCompleted, m.CompletionStatus)

	// 后续失败的尝试不会把状态拉回去
	m.ApplyAttempt(10, false)
	assert.Equal(t, StatusCompleted, m.CompletionStatus)
	assert.Equal(t, 2, m.Attempts)
	assert.Equal(t, 50, m.BestScore)
	assert.Equal(t, 60, m.XPEarned)
}

func TestApplyAttemptBestScoreNeverDecreases(t *testing.T) {
	m := &ModuleCompletion{CompletionStatus: StatusInProgress, BestScore: 80, Attempts: 3}

	m.ApplyAttempt(40, false)

	assert.Equal(t, 80, m.BestScore)
	assert.Equal(t, 4, m.Attempts)
}

func TestCompletionStatusIsValid(t *testing.T) {
	assert.True(t, StatusNotStarted.IsValid())
	assert.True(t, StatusInProgress.IsValid())
	assert.True(t, StatusCompleted.IsValid())
	assert.False(t, CompletionStatus("done").IsValid())
	assert.False(t, CompletionStatus("").IsValid())
}

func TestLanguageIsValid(t *testing.T) {
	assert.True(t, LanguageEnglish.IsValid())
	assert.True(t, LanguageOdia.IsValid())
	assert.False(t, Language("hindi").IsValid())
}
