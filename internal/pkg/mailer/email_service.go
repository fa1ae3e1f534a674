package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendLowCreditAlert(toEmail, fullName string, balance int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
}

func NewEmailService(host string, port int, username, password, senderName, clientURL string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
		clientURL:   clientURL,
	}
}

func (s *emailService) SendLowCreditAlert(toEmail, fullName string, balance int) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your credit balance is running low")

	greeting := "Hi"
	if fullName != "" {
		greeting = "Hi " + fullName
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s,</h2>
			<p>You have <strong>%d</strong> credits left.</p>
			<p>Starting a new analysis session costs 5 credits and each generated chart costs 1.</p>
			<a href="%s/dashboard" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open dashboard</a>
		</div>
	`, greeting, balance, s.clientURL)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send low credit alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Low credit alert sent to %s\n", toEmail)
	return nil
}
