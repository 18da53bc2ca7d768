package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

type smtpRepo struct {
	cfg Config
}

func NewSMTP(cfg Config) Repo { return &smtpRepo{cfg: cfg} }

func (r *smtpRepo) SendPurchase(ctx context.Context, email, name, bookName string, amount decimal.Decimal) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nYou purchased %q for %s. The book is now in your library.\r\n",
		name, bookName, amount.StringFixed(2))
	return r.send(email, "Purchase confirmation", body)
}

func (r *smtpRepo) SendBorrow(ctx context.Context, email, name, bookName string, days int, amount decimal.Decimal, returnDate time.Time) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nYou borrowed %q for %d day(s) (charged %s). Return due %s.\r\n",
		name, bookName, days, amount.StringFixed(2), returnDate.Format(time.RFC1123))
	return r.send(email, "Borrow confirmation", body)
}

func (r *smtpRepo) SendSubscription(ctx context.Context, email, name, planName string, price decimal.Decimal, expiresAt time.Time) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nYour %q subscription is active (charged %s). It expires on %s.\r\n",
		name, planName, price.StringFixed(2), expiresAt.Format(time.RFC1123))
	return r.send(email, "Subscription activated", body)
}

func (r *smtpRepo) SendOfferPurchase(ctx context.Context, email, name string, bookNames []string, amount decimal.Decimal) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nYou purchased a bundle of %d books for %s:\r\n- %s\r\n",
		name, len(bookNames), amount.StringFixed(2), strings.Join(bookNames, "\r\n- "))
	return r.send(email, "Offer purchase confirmation", body)
}

func (r *smtpRepo) send(to, subject, body string) error {
	if r.cfg.Host == "" {
		return fmt.Errorf("mailer: SMTP host not configured")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", r.cfg.From, to, subject, body)
	addr := r.cfg.Host + ":" + r.cfg.Port
	var auth smtp.Auth
	if r.cfg.User != "" {
		auth = smtp.PlainAuth("", r.cfg.User, r.cfg.Pass, r.cfg.Host)
	}
	return smtp.SendMail(addr, auth, r.cfg.From, []string{to}, []byte(msg))
}
