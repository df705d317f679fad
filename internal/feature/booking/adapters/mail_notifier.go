package adapters

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mindcare_backend/internal/feature/booking/domain/entity"
	"mindcare_backend/internal/feature/booking/usecase"
	"mindcare_backend/internal/platform/mail"
)

// DefaultNotifyTimeout は確認メール送信のタイムアウトです。
const DefaultNotifyTimeout = 15 * time.Second

// MailSender はメール送信を抽象化します。
type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

var confirmationTemplate = template.Must(template.New("booking").Parse(
	`<p>Your session with <strong>{{.DoctorName}}</strong> ({{.Speciality}}) is confirmed.</p>` +
		`{{with .Slot}}<p>{{.Date}} {{.StartTime}}-{{.EndTime}}</p>{{end}}` +
		`<p>Booking #{{.ID}}, fee {{printf "%.2f" .Fee}}</p>`))

// MailNotifier は予約確定メールを非同期に送信します。
// 送信はリクエストのキャンセルから切り離し、タイムアウト付きで実行します。
type MailNotifier struct {
	sender  MailSender
	timeout time.Duration
	wg      sync.WaitGroup
}

var _ usecase.Notifier = (*MailNotifier)(nil)

// NewMailNotifier はMailNotifierを生成します。timeout が0以下の場合は DefaultNotifyTimeout です。
func NewMailNotifier(sender MailSender, timeout time.Duration) *MailNotifier {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &MailNotifier{sender: sender, timeout: timeout}
}

// BookingConfirmed は確認メールの送信をゴルーチンで開始し、すぐに戻ります。
// 送信失敗はログに残すだけで、予約の成否には影響しません。
func (n *MailNotifier) BookingConfirmed(ctx context.Context, to string, detail entity.BookingDetail) {
	var body strings.Builder
	if err := confirmationTemplate.Execute(&body, detail); err != nil {
		slog.Error("failed to render booking confirmation", "error", err, "booking_id", detail.ID)
		return
	}
	msg := mail.Message{
		To:      to,
		Subject: fmt.Sprintf("Booking confirmed with %s", detail.DoctorName),
		HTML:    body.String(),
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if err := n.sender.Send(sendCtx, msg); err != nil {
			slog.Warn("booking confirmation e-mail failed", "error", err, "booking_id", detail.ID)
			return
		}
		slog.Debug("booking confirmation e-mail sent", "booking_id", detail.ID)
	}()
}

// Wait は送信中のメールがすべて終わるまで待ちます。シャットダウン時に使用します。
func (n *MailNotifier) Wait() {
	n.wg.Wait()
}
