// Package mail はSMTP経由のメール送信を提供します。
package mail

import (
	"context"
	"errors"
	"log/slog"

	"gopkg.in/gomail.v2"

	"mindcare_backend/internal/platform/config"
)

// Message は送信するメールです。本文はHTMLです。
type Message struct {
	To      string
	Subject string
	HTML    string
}

// dialer はgomail.Dialerのうち送信に使う部分です。
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender はgomailを使ったメール送信者です。
type Sender struct {
	from   string
	dialer dialer
}

// NewSender はSMTP設定からSenderを生成します。Host が未設定の場合は nil を返します。
func NewSender(cfg config.SMTPConfig) *Sender {
	if cfg.Host == "" {
		slog.Info("SMTP is not configured, e-mail notifications are disabled")
		return nil
	}
	return &Sender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

// Send はメールを送信します。gomailはコンテキストを受け取らないため、
// 送信開始前にキャンセルされていれば送信しません。
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if s == nil {
		return errors.New("mail sender is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return s.dialer.DialAndSend(m)
}
