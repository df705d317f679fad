package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	bookingadapters "mindcare_backend/internal/feature/booking/adapters"
	bookingusecase "mindcare_backend/internal/feature/booking/usecase"
	"mindcare_backend/internal/platform/cache"
	"mindcare_backend/internal/platform/config"
	"mindcare_backend/internal/platform/mail"
)

// NewSlotRepository はRedisがあれば空き枠キャッシュで inner をラップします。
func NewSlotRepository(rdb *redis.Client, inner bookingusecase.SlotRepository) bookingusecase.SlotRepository {
	if rdb == nil {
		return inner
	}
	return cache.NewCachingSlotRepository(rdb, cache.DefaultSlotTTL, inner, "slots")
}

// NewNotifier はSMTPが設定されていれば予約確認メールの送信者を返します。
// 未設定の場合は nil を返し、予約は通知なしで確定します。
func NewNotifier(cfg config.SMTPConfig) *bookingadapters.MailNotifier {
	sender := mail.NewSender(cfg)
	if sender == nil {
		return nil
	}
	return bookingadapters.NewMailNotifier(sender, 15*time.Second)
}
