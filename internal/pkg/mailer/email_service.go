package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendEscalationAlert(toEmail string, alert EscalationAlert) error
}

// EscalationAlert is the payload delivered to the support inbox when a
// conversation hands off to a human agent.
type EscalationAlert struct {
	SessionID  string
	Reason     string
	IssueType  string
	CaseName   string
	Turn       int
	Transcript []TranscriptLine
}

type TranscriptLine struct {
	Role    string
	Content string
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) SendEscalationAlert(toEmail string, alert EscalationAlert) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("[Escalation] Session %s needs an agent", alert.SessionID))

	var transcript strings.Builder
	for _, line := range alert.Transcript {
		transcript.WriteString(fmt.Sprintf(
			`<p><strong>%s:</strong> %s</p>`,
			html.EscapeString(line.Role),
			html.EscapeString(line.Content),
		))
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Conversation escalated</h2>
			<p><strong>Session:</strong> %s</p>
			<p><strong>Reason:</strong> %s</p>
			<p><strong>Issue:</strong> %s</p>
			<p><strong>Case:</strong> %s</p>
			<p><strong>Turns:</strong> %d</p>
			<hr/>
			%s
		</div>
	`,
		html.EscapeString(alert.SessionID),
		html.EscapeString(alert.Reason),
		html.EscapeString(alert.IssueType),
		html.EscapeString(alert.CaseName),
		alert.Turn,
		transcript.String(),
	)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send escalation alert for %s: %v\n", alert.SessionID, err)
		return err
	}

	fmt.Printf("[MAILER] Escalation alert sent for session %s\n", alert.SessionID)
	return nil
}
