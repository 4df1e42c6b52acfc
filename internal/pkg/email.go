package pkg

import (
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return d.DialAndSend(m)
}

// BanNoticeHTML renders the notice mailed to a banned user. A nil expiry
// means the ban is permanent.
func BanNoticeHTML(name, reason string, expiresAt *time.Time) string {
	until := "This ban is permanent."
	if expiresAt != nil {
		until = fmt.Sprintf("The ban ends on %s (UTC).", expiresAt.UTC().Format("2006-01-02 15:04"))
	}
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<p>Hi %s,</p><p>Your account can no longer suggest titles, vote, comment or report.</p><p>Reason: <b>%s</b></p><p>%s</p>`,
		html.EscapeString(name), html.EscapeString(reason), until)
}
