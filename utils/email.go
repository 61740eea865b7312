package utils

import (
	"Go_Share/config"
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
)

// ErrSMTPNotConfigured is returned when SMTP settings are incomplete.
var ErrSMTPNotConfigured = errors.New("smtp config missing")

// DownloadNotice describes one download of a shared file.
type DownloadNotice struct {
	To           string
	FileName     string
	DownloadedAt time.Time
	IP           string
	UserAgent    string
}

var downloadTmpl = template.Must(template.New("download").Parse(`
<h2>Your file was downloaded</h2>
<p><strong>{{.FileName}}</strong> was downloaded through a share link.</p>
<table>
  <tr><td>Time</td><td>{{.DownloadedAt.UTC.Format "2006-01-02 15:04:05 MST"}}</td></tr>
  <tr><td>IP address</td><td>{{if .IP}}{{.IP}}{{else}}unknown{{end}}</td></tr>
  <tr><td>Client</td><td>{{if .UserAgent}}{{.UserAgent}}{{else}}unknown{{end}}</td></tr>
</table>
`))

// RenderDownloadNotice renders the notification body.
func RenderDownloadNotice(n DownloadNotice) ([]byte, error) {
	var buf bytes.Buffer
	if err := downloadTmpl.Execute(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sendMail delivers e according to SMTP config; swapped in tests.
var sendMail = func(e *email.Email, cfg config.Config) error {
	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	tlsConfig := &tls.Config{ServerName: cfg.SMTPHost}
	if cfg.SMTPTLS {
		return e.SendWithTLS(addr, auth, tlsConfig)
	}
	if cfg.SMTPStartTLS {
		return e.SendWithStartTLS(addr, auth, tlsConfig)
	}
	return e.Send(addr, auth)
}

// SendDownloadNotification emails the file owner about a download.
func SendDownloadNotification(n DownloadNotice) error {
	cfg := config.AppConfig
	if cfg.SMTPHost == "" || cfg.SMTPPort == "" || cfg.SMTPFromEmail == "" {
		return ErrSMTPNotConfigured
	}
	body, err := RenderDownloadNotice(n)
	if err != nil {
		return err
	}
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", cfg.SMTPFromName, cfg.SMTPFromEmail)
	e.To = []string{n.To}
	e.Subject = "File downloaded: " + n.FileName
	e.HTML = body
	return sendMail(e, cfg)
}
