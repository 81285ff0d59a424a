package services

import (
	"bytes"
	"context"
	"errors"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

// Notifier sends the two confirmation mails after a booking is paid.
type Notifier interface {
	SendCustomerConfirmation(ctx context.Context, b models.Booking) error
	SendAdminNotification(ctx context.Context, b models.Booking) error
}

// NoopNotifier is used when SMTP is not configured.
type NoopNotifier struct{}

func (NoopNotifier) SendCustomerConfirmation(ctx context.Context, b models.Booking) error {
	utils.LogEvent(utils.RequestID(ctx), "mail", "customer_confirmation", "mail disabled, skipped", zap.String("booking_id", b.ID))
	return nil
}

func (NoopNotifier) SendAdminNotification(ctx context.Context, b models.Booking) error {
	utils.LogEvent(utils.RequestID(ctx), "mail", "admin_notification", "mail disabled, skipped", zap.String("booking_id", b.ID))
	return nil
}

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService renders the confirmation templates and hands them to an SMTP sender.
type EmailService struct {
	Sender     MailSender
	From       string
	AdminEmail string
	// Receipt, when set, produces a PDF attached to the customer mail.
	Receipt func(models.Booking) ([]byte, string, error)
}

// NewEmailService dials host:port with the given credentials for every send.
func NewEmailService(host string, port int, user, pass, from, adminEmail string) EmailService {
	return EmailService{
		Sender:     gomail.NewDialer(host, port, user, pass),
		From:       from,
		AdminEmail: adminEmail,
	}
}

type mailView struct {
	Booking  models.Booking
	Amount   string
	Distance string
	Pickup   string
	Supplies string
	Created  string
	Paid     string
}

func newMailView(b models.Booking) mailView {
	v := mailView{
		Booking:  b,
		Amount:   utils.FormatUSD(b.AmountCents),
		Distance: utils.FormatMiles(b.DistanceMiles),
		Pickup:   "as soon as possible",
		Supplies: strings.Join(supplyNames(b.Supplies), ", "),
		Created:  utils.FormatDisplay(b.CreatedAt),
	}
	if b.PickupTime != nil {
		if t, err := utils.ParsePickupTime(*b.PickupTime); err == nil {
			v.Pickup = utils.FormatDisplay(t)
		}
	}
	if v.Supplies == "" {
		v.Supplies = "none"
	}
	if b.PaidAt != nil {
		v.Paid = utils.FormatDisplay(*b.PaidAt)
	}
	return v
}

func supplyNames(s models.Supplies) []string {
	var out []string
	if s.Box {
		out = append(out, "box")
	}
	if s.Mailer {
		out = append(out, "mailer")
	}
	if s.Tape {
		out = append(out, "tape")
	}
	if s.Label {
		out = append(out, "shipping label")
	}
	return out
}

var customerText = texttemplate.Must(texttemplate.New("customer").Parse(`Hi {{if .Booking.Name}}{{.Booking.Name}}{{else}}there{{end}},

Your payment of {{.Amount}} was received and your pickup is confirmed.

Booking:  {{.Booking.ID}}
Address:  {{.Booking.Address}}
Pickup:   {{.Pickup}}
Supplies: {{.Supplies}}
{{- if .Booking.Notes}}
Notes:    {{.Booking.Notes}}{{end}}

Your receipt is attached.
`))

var customerHTML = htmltemplate.Must(htmltemplate.New("customer").Parse(`<p>Hi {{if .Booking.Name}}{{.Booking.Name}}{{else}}there{{end}},</p>
<p>Your payment of <strong>{{.Amount}}</strong> was received and your pickup is confirmed.</p>
<table>
<tr><td>Booking</td><td>{{.Booking.ID}}</td></tr>
<tr><td>Address</td><td>{{.Booking.Address}}</td></tr>
<tr><td>Pickup</td><td>{{.Pickup}}</td></tr>
<tr><td>Supplies</td><td>{{.Supplies}}</td></tr>
{{- if .Booking.Notes}}
<tr><td>Notes</td><td>{{.Booking.Notes}}</td></tr>{{end}}
</table>
<p>Your receipt is attached.</p>
`))

var adminText = texttemplate.Must(texttemplate.New("admin").Parse(`New paid booking {{.Booking.ID}}

Name:     {{.Booking.Name}}
Email:    {{.Booking.Email}}
Phone:    {{.Booking.Phone}}
Address:  {{.Booking.Address}}
Pickup:   {{.Pickup}}
Supplies: {{.Supplies}}
Distance: {{.Distance}}
Amount:   {{.Amount}}
Intent:   {{.Booking.PaymentIntentID}}
Created:  {{.Created}}
Paid:     {{.Paid}}
{{- if .Booking.Notes}}
Notes:    {{.Booking.Notes}}{{end}}
{{- range $k, $v := .Booking.Extra}}
{{$k}}: {{$v}}{{end}}
`))

func renderText(t *texttemplate.Template, v mailView) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s EmailService) SendCustomerConfirmation(ctx context.Context, b models.Booking) error {
	reqID := utils.RequestID(ctx)
	if strings.TrimSpace(b.Email) == "" {
		utils.LogEvent(reqID, "mail", "customer_confirmation", "booking has no email, skipped", zap.String("booking_id", b.ID))
		return nil
	}

	view := newMailView(b)
	text, err := renderText(customerText, view)
	if err != nil {
		return domain.InternalError{Msg: "render customer mail", Err: err}
	}
	var html bytes.Buffer
	if err := customerHTML.Execute(&html, view); err != nil {
		return domain.InternalError{Msg: "render customer mail", Err: err}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", b.Email)
	m.SetHeader("Subject", "Your pickup is confirmed")
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html.String())

	if s.Receipt != nil {
		pdf, name, err := s.Receipt(b)
		if err != nil {
			// the mail still goes out without the attachment
			utils.LogError(reqID, "mail", "customer_confirmation", "receipt render failed", err, zap.String("booking_id", b.ID))
		} else {
			m.Attach(name, gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(pdf)
				return err
			}))
		}
	}

	if err := s.send(m); err != nil {
		return err
	}
	utils.LogEvent(reqID, "mail", "customer_confirmation", "sent", zap.String("booking_id", b.ID))
	return nil
}

func (s EmailService) SendAdminNotification(ctx context.Context, b models.Booking) error {
	reqID := utils.RequestID(ctx)
	if strings.TrimSpace(s.AdminEmail) == "" {
		utils.LogEvent(reqID, "mail", "admin_notification", "ADMIN_EMAIL not set, skipped", zap.String("booking_id", b.ID))
		return nil
	}

	text, err := renderText(adminText, newMailView(b))
	if err != nil {
		return domain.InternalError{Msg: "render admin mail", Err: err}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.AdminEmail)
	if b.Email != "" {
		m.SetHeader("Reply-To", b.Email)
	}
	m.SetHeader("Subject", "New paid booking "+b.ID)
	m.SetBody("text/plain", text)

	if err := s.send(m); err != nil {
		return err
	}
	utils.LogEvent(reqID, "mail", "admin_notification", "sent", zap.String("booking_id", b.ID))
	return nil
}

func (s EmailService) send(m *gomail.Message) error {
	if s.Sender == nil {
		return domain.UpstreamError{Service: "mail", Err: errors.New("no sender configured")}
	}
	if err := s.Sender.DialAndSend(m); err != nil {
		return domain.UpstreamError{Service: "mail", Err: err}
	}
	return nil
}
