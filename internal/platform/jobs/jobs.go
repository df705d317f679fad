// Package jobs は定期実行ジョブのスケジューラーを提供します。
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// PurgeSchedule は期限切れセッション削除の実行時刻です（毎日 03:15）。
const PurgeSchedule = "15 3 * * *"

const jobTimeout = 5 * time.Minute

// ExpiredSessionPurger は期限切れのリフレッシュセッションを削除します。
type ExpiredSessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Scheduler はcronスケジューラーのラッパーです。
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler はスケジューラーを生成します。
func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))}
}

// RegisterSessionPurge は期限切れセッションの定期削除を登録します。
func (s *Scheduler) RegisterSessionPurge(spec string, sessions ExpiredSessionPurger) error {
	_, err := s.cron.AddFunc(spec, func() { PurgeExpiredSessions(context.Background(), sessions) })
	return err
}

// PurgeExpiredSessions は期限切れセッションを1回削除します。
func PurgeExpiredSessions(ctx context.Context, sessions ExpiredSessionPurger) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	deleted, err := sessions.DeleteExpired(ctx)
	if err != nil {
		slog.Error("failed to purge expired sessions", "error", err)
		return
	}
	slog.Info("purged expired sessions", "deleted", deleted)
}

// Start はスケジューラーを開始します。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop はスケジューラーを停止し、実行中のジョブの完了を待ちます。
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
