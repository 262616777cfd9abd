// internal/services/email.go
package services

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"travelship-backend/internal/config"
	"travelship-backend/internal/models"
)

// MatchDetails - детали совпадения для письма: маршрут и опциональные
// дата, цена и вес
type MatchDetails struct {
	From   string
	To     string
	Date   *time.Time
	Price  *float64
	Weight *float64
}

// EmailService отправляет письма через SMTP
type EmailService struct {
	config *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		config: cfg,
	}
}

// SendAlertNotificationEmail отправляет письмо о сработавшем алерте
func (e *EmailService) SendAlertNotificationEmail(toEmail, toName, alertType string, details MatchDetails) error {
	var subject, intro string
	if alertType == models.AlertTypeSender {
		subject = "TravelShip: найдена подходящая поездка"
		intro = "появилась поездка, подходящая под ваш сохранённый поиск"
	} else {
		subject = "TravelShip: найдена подходящая посылка"
		intro = "появилась заявка на перевозку, подходящая под ваш сохранённый поиск"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Здравствуйте, %s!\n\n", toName)
	fmt.Fprintf(&sb, "Хорошие новости: %s.\n\n", intro)
	fmt.Fprintf(&sb, "Маршрут: %s → %s\n", details.From, details.To)
	if details.Date != nil {
		fmt.Fprintf(&sb, "Дата: %s\n", details.Date.Format("02.01.2006"))
	}
	if details.Weight != nil {
		fmt.Fprintf(&sb, "Вес: %.1f кг\n", *details.Weight)
	}
	if details.Price != nil {
		fmt.Fprintf(&sb, "Цена: %.2f\n", *details.Price)
	}
	sb.WriteString("\nОткройте приложение, чтобы посмотреть детали и связаться с контрагентом.\n\n")
	sb.WriteString("Команда TravelShip\n")

	return e.sendEmail(toEmail, subject, sb.String())
}

func (e *EmailService) sendEmail(to, subject, body string) error {
	// Без настроенных кредов письма не уходят
	if e.config.SMTPUsername == "" || e.config.SMTPPassword == "" {
		return fmt.Errorf("email credentials not configured")
	}

	auth := smtp.PlainAuth("", e.config.SMTPUsername, e.config.SMTPPassword, e.config.SMTPHost)

	fromEmail := e.config.EmailFrom
	if fromEmail == "" {
		fromEmail = e.config.SMTPUsername
	}

	message := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=utf-8\r\n"+
			"\r\n"+
			"%s\r\n",
		e.config.EmailName, fromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%d", e.config.SMTPHost, e.config.SMTPPort)
	if err := smtp.SendMail(addr, auth, fromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
