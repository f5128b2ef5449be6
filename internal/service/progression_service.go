package service

import (
	"time"

	"stem_quest_backend/internal/model"
	"stem_quest_backend/internal/util"
	"stem_quest_backend/pkg/logger"
	"stem_quest_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// 变更通知里携带的表名，同步中心收到后按用户整体刷新
const (
	TableBadges           = "badges"
	TableModuleCompletion = "module_completion"
)

type ProfileStore interface {
	FindByUserID(userID string) (*model.Profile, error)
	UpdateLanguage(userID string, lang model.Language) error
}

type ProgressStore interface {
	FindByUserID(userID string) (*model.UserProgress, error)
	GetOrCreate(userID string) (*model.UserProgress, error)
	AddDeltas(userID string, xp, credits int) (*model.UserProgress, error)
	UpdateStreak(userID string, streak int, lastLogin time.Time) (*model.UserProgress, error)
}

type BadgeStore interface {
	FindByUserID(userID string) ([]model.Badge, error)
	FindByTriple(userID, badgeName, moduleName string) (*model.Badge, error)
	Create(userID, badgeName, moduleName string) (*model.Badge, error)
}

type CompletionStore interface {
	FindByUserID(userID string) ([]model.ModuleCompletion, error)
	FindByUserAndModule(userID, moduleID string) (*model.ModuleCompletion, error)
	RecordAttempt(userID, moduleID string, score int, completed bool) (*model.ModuleCompletion, error)
}

type CatalogStore interface {
	ListAll() ([]model.GameModule, error)
	ListBySubject(subject string) ([]model.GameModule, error)
}

type ChangePublisher interface {
	PublishChange(userID, table string)
}

// ProgressionService 是进度同步核心：游戏模块通过它上报 XP/学分、
// 模块尝试和徽章，它独占 user_progress / badges / module_completion 的写入
type ProgressionService struct {
	Profiles    ProfileStore
	Progress    ProgressStore
	Badges      BadgeStore
	Completions CompletionStore
	Catalog     CatalogStore
	Publisher   ChangePublisher
}

func NewProgressionService(
	profiles ProfileStore,
	progress ProgressStore,
	badges BadgeStore,
	completions CompletionStore,
	catalog CatalogStore,
) *ProgressionService {
	return &ProgressionService{
		Profiles:    profiles,
		Progress:    progress,
		Badges:      badges,
		Completions: completions,
		Catalog:     catalog,
	}
}

// Snapshot 是一次整体读取的结果，也是实时同步推送的载荷
type Snapshot struct {
	Profile     *model.Profile           `json:"profile"`
	Progress    *model.UserProgress      `json:"progress"`
	Badges      []model.Badge            `json:"badges"`
	Completions []model.ModuleCompletion `json:"moduleCompletions"`
}

// ReportProgress 累加 XP/学分。没有用户身份时记日志后静默丢弃，
// 绝不让进度上报失败打断游戏本身
func (s *ProgressionService) ReportProgress(userID string, xp, credits int) (*model.UserProgress, error) {
	if userID == "" {
		logger.Log.Warn("progress report without user identity, dropped")
		monitoring.ProgressionOpsCounter.WithLabelValues("report_progress", "noop").Inc()
		return nil, nil
	}
	if xp < 0 || credits < 0 {
		monitoring.ProgressionOpsCounter.WithLabelValues("report_progress", "error").Inc()
		return nil, util.ErrNegativeDelta
	}

	if _, err := s.Progress.GetOrCreate(userID); err != nil {
		monitoring.ProgressionOpsCounter.WithLabelValues("report_progress", "error").Inc()
		return nil, err
	}

	progress, err := s.Progress.AddDeltas(userID, xp, credits)
	if err != nil {
		monitoring.ProgressionOpsCounter.WithLabelValues("report_progress", "error").Inc()
		return nil, err
	}

	monitoring.ProgressionOpsCounter.WithLabelValues("report_progress", "applied").Inc()
	logger.Log.Debug("progress reported",
		zap.String("userId", userID),
		zap.Int("xp", xp),
		zap.Int("credits", credits),
		zap.Int("totalXp", progress.TotalXP),
	)
	return progress, nil
}

// ReportAttempt 上报一次模块尝试
func (s *ProgressionService) ReportAttempt(userID, moduleID string, score int, completed bool) (*model.ModuleCompletion, error) {
	if userID == "" {
		logger.Log.Warn("module attempt without user identity, dropped",
			zap.String("moduleId", moduleID))
		monitoring.ProgressionOpsCounter.WithLabelValues("report_attempt", "noop").Inc()
		return nil, nil
	}
	if score < 0 {
		monitoring.ProgressionOpsCounter.WithLabelValues("report_attempt", "error").Inc()
		return nil, util.ErrNegativeDelta
	}

	completion, err := s.Completions.RecordAttempt(userID, moduleID, score, completed)
	if err != nil {
		monitoring.ProgressionOpsCounter.WithLabelValues("report_attempt", "error").Inc()
		return nil, err
	}

	monitoring.ProgressionOpsCounter.WithLabelValues("report_attempt", "applied").Inc()
	s.publish(userID, TableModuleCompletion)
	return completion, nil
}

// GrantBadge 授予徽章。存在性检查只是跳过写入的快路径，
// 并发下撞到唯一键冲突同样按"已授予"处理，不算失败
func (s *ProgressionService) GrantBadge(userID, badgeName, moduleName string) (*model.Badge, error) {
	if userID == "" {
		logger.Log.Warn("badge grant without user identity, dropped",
			zap.String("badge", badgeName), zap.String("module", moduleName))
		monitoring.ProgressionOpsCounter.WithLabelValues("grant_badge", "noop").Inc()
		return nil, nil
	}

	existing, err := s.Badges.FindByTriple(userID, badgeName, moduleName)
	if err != nil {
		monitoring.ProgressionOpsCounter.WithLabelValues("grant_badge", "error").Inc()
		return nil, err
	}
	if existing != nil {
		monitoring.ProgressionOpsCounter.WithLabelValues("grant_badge", "duplicate").Inc()
		return existing, nil
	}

	badge, err := s.Badges.Create(userID, badgeName, moduleName)
	if err != nil {
		if err == util.ErrBadgeAlreadyGranted {
			monitoring.ProgressionOpsCounter.WithLabelValues("grant_badge", "duplicate").Inc()
			return s.Badges.FindByTriple(userID, badgeName, moduleName)
		}
		monitoring.ProgressionOpsCounter.WithLabelValues("grant_badge", "error").Inc()
		return nil, err
	}

	monitoring.ProgressionOpsCounter.WithLabelValues("grant_badge", "applied").Inc()
	logger.Log.Info("badge granted",
		zap.String("userId", userID),
		zap.String("badge", badgeName),
		zap.String("module", moduleName),
	)
	s.publish(userID, TableBadges)
	return badge, nil
}

// RefreshStreak 会话开始时调用一次，同一天重复调用不会重复累加
func (s *ProgressionService) RefreshStreak(userID string) (*model.UserProgress, error) {
	if userID == "" {
		monitoring.ProgressionOpsCounter.WithLabelValues("refresh_streak", "noop").Inc()
		return nil, nil
	}

	progress, err := s.Progress.GetOrCreate(userID)
	if err != nil {
		monitoring.ProgressionOpsCounter.WithLabelValues("refresh_streak", "error").Inc()
		return nil, err
	}

	today := DateOnly(time.Now().UTC())
	next := NextStreak(progress.CurrentStreak, progress.LastLogin, today)

	updated, err := s.Progress.UpdateStreak(userID, next, today)
	if err != nil {
		monitoring.ProgressionOpsCounter.WithLabelValues("refresh_streak", "error").Inc()
		return nil, err
	}

	monitoring.ProgressionOpsCounter.WithLabelValues("refresh_streak", "applied").Inc()
	return updated, nil
}

// SetLanguage 持久化语言偏好，profiles 表其余字段归账号设置模块所有
func (s *ProgressionService) SetLanguage(userID string, lang model.Language) error {
	if userID == "" {
		return util.ErrMissingIdentity
	}
	if !lang.IsValid() {
		return util.ErrInvalidLanguage
	}
	return s.Profiles.UpdateLanguage(userID, lang)
}

// GetSnapshot 整体读取 profile + progress + badges + completions。
// progress/profile 不存在时对应字段为 null，与懒创建语义一致
func (s *ProgressionService) GetSnapshot(userID string) (*Snapshot, error) {
	snapshot := &Snapshot{}

	profile, err := s.Profiles.FindByUserID(userID)
	if err != nil && err != util.ErrProfileNotFound {
		return nil, err
	}
	snapshot.Profile = profile

	progress, err := s.Progress.FindByUserID(userID)
	if err != nil && err != util.ErrProgressNotFound {
		return nil, err
	}
	snapshot.Progress = progress

	badges, err := s.Badges.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	snapshot.Badges = badges

	completions, err := s.Completions.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	snapshot.Completions = completions

	return snapshot, nil
}

func (s *ProgressionService) CurrentProgress(userID string) (*model.UserProgress, error) {
	return s.Progress.FindByUserID(userID)
}

func (s *ProgressionService) CurrentBadges(userID string) ([]model.Badge, error) {
	return s.Badges.FindByUserID(userID)
}

func (s *ProgressionService) CurrentModuleStatus(userID, moduleID string) (*model.ModuleCompletion, error) {
	return s.Completions.FindByUserAndModule(userID, moduleID)
}

func (s *ProgressionService) ListModules(userID string) ([]model.ModuleCompletion, error) {
	return s.Completions.FindByUserID(userID)
}

func (s *ProgressionService) GetProfile(userID string) (*model.Profile, error) {
	return s.Profiles.FindByUserID(userID)
}

func (s *ProgressionService) ListCatalog(subject string) ([]model.GameModule, error) {
	if subject != "" {
		return s.Catalog.ListBySubject(subject)
	}
	return s.Catalog.ListAll()
}

func (s *ProgressionService) publish(userID, table string) {
	if s.Publisher == nil {
		return
	}
	s.Publisher.PublishChange(userID, table)
}
