package utils

import (
	"context"
	"coursehub/logger"
	"coursehub/models"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// EmailNotifier sends purchase receipts through SendGrid.
type EmailNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewEmailNotifier(apiKey, sender string) *EmailNotifier {
	return &EmailNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("CourseHub", sender),
	}
}

// SendEmail delivers one html message.
func (n *EmailNotifier) SendEmail(toEmail, toName, subject, htmlBody string) error {
	message := mail.NewSingleEmail(n.from, subject, mail.NewEmail(toName, toEmail), stripTags(htmlBody), htmlBody)

	resp, err := n.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	logger.Log.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Info("email sent")
	return nil
}

// PurchaseCompleted sends the receipt in the background.
func (n *EmailNotifier) PurchaseCompleted(ctx context.Context, user *models.User, course *models.Course, order *models.Order) error {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	subject := "Your receipt for " + course.Title
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Thank you for purchasing <strong>%s</strong>. The course is now available in your purchases.</p>
		<div class="info-box">
			<strong>Order:</strong> %s<br>
			<strong>Amount:</strong> %s
		</div>
	`, html.EscapeString(name), html.EscapeString(course.Title), order.ID, FormatAmount(order.Amount, order.Currency))

	go func() {
		if err := n.SendEmail(user.Email, name, subject, getEmailTemplate("Purchase Confirmed", body)); err != nil {
			logger.Log.WithField("orderId", order.ID).WithError(err).Error("failed to send receipt")
		}
	}()
	return nil
}

// zero-decimal currencies carry whole units in the smallest unit
var zeroDecimal = map[string]bool{"IDR": true, "JPY": true, "KRW": true, "VND": true}

// FormatAmount renders an amount held in the smallest currency unit.
func FormatAmount(amount int64, currency string) string {
	currency = strings.ToUpper(currency)
	if zeroDecimal[currency] {
		return fmt.Sprintf("%s %d", currency, amount)
	}
	return fmt.Sprintf("%s %d.%02d", currency, amount/100, amount%100)
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// HTML Wrapper shared by every outgoing email
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1E293B; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1E293B; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #2563EB; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>COURSEHUB</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				This is an automated message, please do not reply.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
