package scheduler

import (
	"github.com/ksaito/hatchobori-lunch-backend/internal/cache"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CacheFlushScheduler はレストラン・カテゴリーキャッシュを毎日まとめて破棄する。
// 営業時間や閉店状態の変化を取りこぼさないための保険的なフラッシュ
type CacheFlushScheduler struct {
	cron  *cron.Cron
	store cache.Store
}

func NewCacheFlushScheduler(store cache.Store) *CacheFlushScheduler {
	return &CacheFlushScheduler{
		cron:  cron.New(),
		store: store,
	}
}

// Start schedules the daily flush.
func (s *CacheFlushScheduler) Start() error {
	// 毎日午前4時（JST想定）に全タグを破棄
	_, err := s.cron.AddFunc("0 4 * * *", func() {
		logger.Info("Starting scheduled cache flush", nil)

		s.store.Invalidate(cache.TagRestaurants)
		s.store.Invalidate(cache.TagCategories)

		logger.Info("Scheduled cache flush completed", nil)
	})

	if err != nil {
		logger.Error("Failed to add cron job for cache flush", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cache flush scheduler started successfully (daily at 4:00 AM)", nil)

	return nil
}

// Stop halts the scheduler.
func (s *CacheFlushScheduler) Stop() {
	logger.Info("Stopping cache flush scheduler...", nil)
	s.cron.Stop()
	logger.Info("Cache flush scheduler stopped", nil)
}
