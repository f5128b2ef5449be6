package service

import (
	"testing"
	"time"

	"stem_quest_backend/internal/model"
	"stem_quest_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 内存版的各个 store，模拟仓库层的懒创建/去重/原子累加语义

type fakeProfileStore struct {
	profiles map[string]*model.Profile
}

func (f *fakeProfileStore) FindByUserID(userID string) (*model.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, util.ErrProfileNotFound
}

func (f *fakeProfileStore) UpdateLanguage(userID string, lang model.Language) error {
	p, ok := f.profiles[userID]
	if !ok {
		return util.ErrProfileNotFound
	}
	p.PreferredLanguage = lang
	return nil
}

type fakeProgressStore struct {
	rows map[string]*model.UserProgress
}

func (f *fakeProgressStore) FindByUserID(userID string) (*model.UserProgress, error) {
	if p, ok := f.rows[userID]; ok {
		return p, nil
	}
	return nil, util.ErrProgressNotFound
}

func (f *fakeProgressStore) GetOrCreate(userID string) (*model.UserProgress, error) {
	if p, ok := f.rows[userID]; ok {
		return p, nil
	}
	p := &model.UserProgress{UserID: userID}
	f.rows[userID] = p
	return p, nil
}

func (f *fakeProgressStore) AddDeltas(userID string, xp, credits int) (*model.UserProgress, error) {
	p, ok := f.rows[userID]
	if !ok {
		return nil, util.ErrProgressNotFound
	}
	p.TotalXP += xp
	p.TotalCredits += credits
	return p, nil
}

func (f *fakeProgressStore) UpdateStreak(userID string, streak int, lastLogin time.Time) (*model.UserProgress, error) {
	p, ok := f.rows[userID]
	if !ok {
		return nil, util.ErrProgressNotFound
	}
	p.CurrentStreak = streak
	p.LastLogin = &lastLogin
	return p, nil
}

type fakeBadgeStore struct {
	badges []model.Badge
}

func (f *fakeBadgeStore) FindByUserID(userID string) ([]model.Badge, error) {
	var out []model.Badge
	for _, b := range f.badges {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBadgeStore) FindByTriple(userID, badgeName, moduleName string) (*model.Badge, error) {
	for i := range f.badges {
		b := &f.badges[i]
		if b.UserID == userID && b.BadgeName == badgeName && b.ModuleName == moduleName {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBadgeStore) Create(userID, badgeName, moduleName string) (*model.Badge, error) {
	if existing, _ := f.FindByTriple(userID, badgeName, moduleName); existing != nil {
		return nil, util.ErrBadgeAlreadyGranted
	}
	b := model.Badge{UserID: userID, BadgeName: badgeName, ModuleName: moduleName, EarnedDate: time.Now().UTC()}
	f.badges = append(f.badges, b)
	return &b, nil
}

type fakeCompletionStore struct {
	rows map[string]*model.ModuleCompletion
}

func completionKey(userID, moduleID string) string {
	return userID + "/" + moduleID
}

func (f *fakeCompletionStore) FindByUserID(userID string) ([]model.ModuleCompletion, error) {
	var out []model.ModuleCompletion
	for _, m := range f.rows {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeCompletionStore) FindByUserAndModule(userID, moduleID string) (*model.ModuleCompletion, error) {
	if m, ok := f.rows[completionKey(userID, moduleID)]; ok {
		return m, nil
	}
	return nil, util.ErrModuleNotFound
}

func (f *fakeCompletionStore) RecordAttempt(userID, moduleID string, score int, completed bool) (*model.ModuleCompletion, error) {
	key := completionKey(userID, moduleID)
	m, ok := f.rows[key]
	if !ok {
		m = &model.ModuleCompletion{UserID: userID, ModuleID: moduleID, CompletionStatus: model.StatusNotStarted}
		f.rows[key] = m
	}
	m.ApplyAttempt(score, completed)
	return m, nil
}

type fakeCatalogStore struct {
	modules []model.GameModule
}

func (f *fakeCatalogStore) ListAll() ([]model.GameModule, error) {
	return f.modules, nil
}

func (f *fakeCatalogStore) ListBySubject(subject string) ([]model.GameModule, error) {
	var out []model.GameModule
	for _, m := range f.modules {
		if m.Subject == subject {
			out = append(out, m)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	events []ChangeEvent
}

func (r *recordingPublisher) PublishChange(userID, table string) {
	r.events = append(r.events, ChangeEvent{UserID: userID, Table: table})
}

func newTestService() (*ProgressionService, *recordingPublisher) {
	pub := &recordingPublisher{}
	svc := NewProgressionService(
		&fakeProfileStore{profiles: map[string]*model.Profile{}},
		&fakeProgressStore{rows: map[string]*model.UserProgress{}},
		&fakeBadgeStore{},
		&fakeCompletionStore{rows: map[string]*model.ModuleCompletion{}},
		&fakeCatalogStore{},
	)
	svc.Publisher = pub
	return svc, pub
}

const testUser = "5f0c1d6e-9f2a-4b7c-8d3e-1a2b3c4d5e6f"

func TestReportProgressAccumulates(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.ReportProgress(testUser, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, first.TotalXP)
	assert.Equal(t, 5, first.TotalCredits)

	second, err := svc.ReportProgress(testUser, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, 35, second.TotalXP)
	assert.Equal(t, 5, second.TotalCredits)
}

func TestReportProgressWithoutIdentityIsDropped(t *testing.T) {
	svc, pub := newTestService()

	progress, err := svc.ReportProgress("", 10, 5)

	assert.NoError(t, err)
	assert.Nil(t, progress)
	assert.Empty(t, pub.events)
}

func TestReportProgressRejectsNegativeDeltas(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ReportProgress(testUser, -1, 0)
	assert.ErrorIs(t, err, util.ErrNegativeDelta)

	_, err = svc.ReportProgress(testUser, 0, -5)
	assert.ErrorIs(t, err, util.ErrNegativeDelta)
}

func TestReportAttemptPublishesCompletionChange(t *testing.T) {
	svc, pub := newTestService()

	completion, err := svc.ReportAttempt(testUser, "photosynthesis_6", 30, false)
	require.NoError(t, err)
	assert.Equal(t, 1, completion.Attempts)
	assert.Equal(t, model.StatusInProgress, completion.CompletionStatus)

	completion, err = svc.ReportAttempt(testUser, "photosynthesis_6", 50, true)
	require.NoError(t, err)
	assert.Equal(t, 2, completion.Attempts)
	assert.Equal(t, 50, completion.BestScore)
	assert.Equal(t, model.StatusCompleted, completion.CompletionStatus)

	require.Len(t, pub.events, 2)
	assert.Equal(t, ChangeEvent{UserID: testUser, Table: TableModuleCompletion}, pub.events[0])
}

func TestGrantBadgeIsIdempotent(t *testing.T) {
	svc, pub := newTestService()

	first, err := svc.GrantBadge(testUser, "Eco Scientist", "photosynthesis")
	require.NoError(t, err)
	require.NotNil(t, first)

	// 快速连点触发的重复授予：同一行返回，不新增，也不再广播
	for i := 0; i < 5; i++ {
		again, err := svc.GrantBadge(testUser, "Eco Scientist", "photosynthesis")
		require.NoError(t, err)
		assert.Equal(t, first.BadgeName, again.BadgeName)
	}

	badges, err := svc.CurrentBadges(testUser)
	require.NoError(t, err)
	assert.Len(t, badges, 1)

	require.Len(t, pub.events, 1)
	assert.Equal(t, TableBadges, pub.events[0].Table)
}

func TestGrantBadgeSurvivesCreateRace(t *testing.T) {
	svc, pub := newTestService()

	badges := &raceBadgeStore{fakeBadgeStore: &fakeBadgeStore{}}
	svc.Badges = badges

	badge, err := svc.GrantBadge(testUser, "Circuit Master", "circuits")
	require.NoError(t, err)
	require.NotNil(t, badge)
	assert.Equal(t, "Circuit Master", badge.BadgeName)
	assert.Empty(t, pub.events)
}

// raceBadgeStore 模拟存在性检查和插入之间被并发请求抢先的情况：
// 检查说没有，插入却撞唯一键
type raceBadgeStore struct {
	*fakeBadgeStore
	raced bool
}

func (r *raceBadgeStore) FindByTriple(userID, badgeName, moduleName string) (*model.Badge, error) {
	if !r.raced {
		return nil, nil
	}
	return r.fakeBadgeStore.FindByTriple(userID, badgeName, moduleName)
}

func (r *raceBadgeStore) Create(userID, badgeName, moduleName string) (*model.Badge, error) {
	if !r.raced {
		r.raced = true
		r.fakeBadgeStore.Create(userID, badgeName, moduleName)
		return nil, util.ErrBadgeAlreadyGranted
	}
	return r.fakeBadgeStore.Create(userID, badgeName, moduleName)
}

func TestGrantBadgeWithoutIdentityIsDropped(t *testing.T) {
	svc, pub := newTestService()

	badge, err := svc.GrantBadge("", "Eco Scientist", "photosynthesis")

	assert.NoError(t, err)
	assert.Nil(t, badge)
	assert.Empty(t, pub.events)
}

func TestRefreshStreakSameDayIsIdempotent(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.RefreshStreak(testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentStreak)

	second, err := svc.RefreshStreak(testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, second.CurrentStreak)
	require.NotNil(t, second.LastLogin)
	assert.Equal(t, DateOnly(time.Now().UTC()), *second.LastLogin)
}

func TestRefreshStreakExtendsFromYesterday(t *testing.T) {
	svc, _ := newTestService()

	progress := svc.Progress.(*fakeProgressStore)
	yesterday := DateOnly(time.Now().UTC().AddDate(0, 0, -1))
	progress.rows[testUser] = &model.UserProgress{UserID: testUser, CurrentStreak: 4, LastLogin: &yesterday}

	updated, err := svc.RefreshStreak(testUser)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.CurrentStreak)
}

func TestSetLanguage(t *testing.T) {
	svc, _ := newTestService()

	profiles := svc.Profiles.(*fakeProfileStore)
	profiles.profiles[testUser] = &model.Profile{UserID: testUser, PreferredLanguage: model.LanguageEnglish}

	require.NoError(t, svc.SetLanguage(testUser, model.LanguageOdia))
	assert.Equal(t, model.LanguageOdia, profiles.profiles[testUser].PreferredLanguage)

	assert.ErrorIs(t, svc.SetLanguage(testUser, model.Language("hindi")), util.ErrInvalidLanguage)
	assert.ErrorIs(t, svc.SetLanguage("", model.LanguageOdia), util.ErrMissingIdentity)
}

func TestGetSnapshotToleratesMissingRows(t *testing.T) {
	svc, _ := newTestService()

	snapshot, err := svc.GetSnapshot(testUser)
	require.NoError(t, err)
	assert.Nil(t, snapshot.Profile)
	assert.Nil(t, snapshot.Progress)
	assert.Empty(t, snapshot.Badges)
	assert.Empty(t, snapshot.Completions)
}

func TestGetSnapshotCollectsAllState(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ReportProgress(testUser, 100, 20)
	require.NoError(t, err)
	_, err = svc.ReportAttempt(testUser, "circuit_builder_6", 80, true)
	require.NoError(t, err)
	_, err = svc.GrantBadge(testUser, "Circuit Master", "circuits")
	require.NoError(t, err)

	snapshot, err := svc.GetSnapshot(testUser)
	require.NoError(t, err)
	require.NotNil(t, snapshot.Progress)
	assert.Equal(t, 100, snapshot.Progress.TotalXP)
	assert.Len(t, snapshot.Badges, 1)
	require.Len(t, snapshot.Completions, 1)
	assert.Equal(t, model.StatusCompleted, snapshot.Completions[0].CompletionStatus)
}
