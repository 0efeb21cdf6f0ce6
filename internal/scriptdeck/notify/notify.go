// Package notify sends a run report by mail once an execution finishes. The
// message body is a pure formatting concern; SMTP settings come from the
// application configuration.
package notify

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"scriptdeck/internal/scriptdeck/config"
)

// Report summarizes one finished execution
type Report struct {
	Category string
	Script   string
	Status   string
	ExitCode int
	Started  time.Time
	Duration time.Duration
	LogPath  string
}

// Subject generates the mail subject line for a report
func Subject(r Report) string {
	return fmt.Sprintf("[scriptdeck] %s/%s: %s", r.Category, r.Script, r.Status)
}

// Body generates the HTML body for a report
func Body(r Report) string {
	return fmt.Sprintf(`
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
			.block { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #eaeaea; border-radius: 5px; background-color: #f9f9f9; }
			.detail p { margin: 5px 0; }
		</style>
	</head>
	<body>
		<div class="block">
		<h1>Esecuzione script: %s</h1>
		<div class="detail">
			<p><strong>Modulo:</strong> %s</p>
			<p><strong>Script:</strong> %s</p>
			<p><strong>Esito:</strong> %s (exit code: %d)</p>
			<p><strong>Avviata:</strong> %s</p>
			<p><strong>Durata:</strong> %s</p>
			<p><strong>Log:</strong> %s</p>
		</div>
		</div>
	</body>
	</html>
	`,
		r.Status, r.Category, r.Script, r.Status, r.ExitCode,
		r.Started.Format("2006-01-02 15:04:05"), r.Duration.Round(time.Millisecond), r.LogPath,
	)
}

// Send delivers the report over the configured SMTP server
func Send(smtp *config.SMTP, r Report) error {
	if smtp == nil || smtp.Host == "" {
		return fmt.Errorf("smtp is not configured")
	}

	from := smtp.From
	if from == "" {
		from = smtp.Username
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", smtp.To)
	m.SetHeader("Subject", Subject(r))
	m.SetBody("text/html", Body(r))

	d := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send run report: %w", err)
	}
	return nil
}
