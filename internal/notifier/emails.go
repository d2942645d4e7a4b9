package notifier

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/ellcworth/shipment-service/internal/domain"
	"github.com/ellcworth/shipment-service/internal/infrastructure/mailer"
)

// ErrNoRecipient is returned when a shipment carries no usable email
// address for the notification kind
var ErrNoRecipient = errors.New("no recipient email for shipment")

// Composer renders notification emails for shipments
type Composer struct {
	supportEmail  string
	pendingTmpl   *template.Template
	deliveredTmpl *template.Template
}

// NewComposer creates a new Composer. The support email is the fallback
// recipient when a shipment has no party emails.
func NewComposer(supportEmail string) *Composer {
	return &Composer{
		supportEmail:  supportEmail,
		pendingTmpl:   template.Must(template.New("pending").Parse(pendingTemplate)),
		deliveredTmpl: template.Must(template.New("delivered").Parse(deliveredTemplate)),
	}
}

// Compose builds the email for a shipment and notification kind
func (c *Composer) Compose(kind domain.NotificationKind, shipment *domain.Shipment) (mailer.Email, error) {
	switch kind {
	case domain.NotificationPending:
		return c.composePending(shipment)
	case domain.NotificationDelivered:
		return c.composeDelivered(shipment)
	default:
		return mailer.Email{}, domain.ErrUnknownNotificationKind
	}
}

func (c *Composer) composePending(shipment *domain.Shipment) (mailer.Email, error) {
	to := partyEmail(shipment.Shipper)
	if to == "" {
		to = c.supportEmail
	}
	if to == "" {
		return mailer.Email{}, fmt.Errorf("%w: %s", ErrNoRecipient, shipment.Reference)
	}

	cc := collectEmails(partyEmail(shipment.Consignee), partyEmail(shipment.NotifyParty))

	html, err := c.render(c.pendingTmpl, shipment)
	if err != nil {
		return mailer.Email{}, err
	}

	return mailer.Email{
		To:      to,
		CC:      cc,
		Subject: fmt.Sprintf("Shipment %s - Now Pending", shipment.Reference),
		HTML:    html,
	}, nil
}

func (c *Composer) composeDelivered(shipment *domain.Shipment) (mailer.Email, error) {
	to := partyEmail(shipment.Consignee)
	if to == "" {
		to = partyEmail(shipment.Shipper)
	}
	if to == "" {
		to = c.supportEmail
	}
	if to == "" {
		return mailer.Email{}, fmt.Errorf("%w: %s", ErrNoRecipient, shipment.Reference)
	}

	cc := collectEmails(partyEmail(shipment.Shipper), partyEmail(shipment.NotifyParty))

	html, err := c.render(c.deliveredTmpl, shipment)
	if err != nil {
		return mailer.Email{}, err
	}

	return mailer.Email{
		To:      to,
		CC:      cc,
		Subject: fmt.Sprintf("Delivered: Shipment %s Successfully Completed", shipment.Reference),
		HTML:    html,
	}, nil
}

type emailData struct {
	Reference   string
	Shipper     string
	Consignee   string
	Origin      string
	Destination string
	CargoLine   string
	Vessel      string
	ETD         string
	ETA         string
	DeliveredOn string
}

func (c *Composer) render(tmpl *template.Template, shipment *domain.Shipment) (string, error) {
	data := emailData{
		Reference:   shipment.Reference,
		Shipper:     partyName(shipment.Shipper),
		Consignee:   partyName(shipment.Consignee),
		Origin:      shipment.Route.Origin,
		Destination: shipment.Route.Destination,
		CargoLine:   cargoLine(shipment.Cargo),
	}

	var etd, eta *time.Time
	if shipment.Voyage != nil {
		data.Vessel = shipment.Voyage.Vessel
		etd = shipment.Voyage.ETD
		eta = shipment.Voyage.ETA
	}
	data.ETD = formatDate(etd)
	data.ETA = formatDate(eta)
	if shipment.DeliveredAt != nil {
		data.DeliveredOn = formatDate(shipment.DeliveredAt)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}

func cargoLine(cargo domain.Cargo) string {
	switch cargo.Type {
	case domain.CargoTypeVehicle:
		if cargo.Vehicle != nil {
			return fmt.Sprintf("%d %s %s (VIN %s)", cargo.Vehicle.Year, cargo.Vehicle.Make, cargo.Vehicle.Model, cargo.Vehicle.VIN)
		}
	case domain.CargoTypeContainer:
		if cargo.Container != nil {
			return fmt.Sprintf("Container %s (%s)", cargo.Container.ContainerNo, cargo.Container.Size)
		}
	case domain.CargoTypeLCL:
		if cargo.LCL != nil {
			return fmt.Sprintf("%s, %d pieces", cargo.LCL.Description, cargo.LCL.Pieces)
		}
	}
	return string(cargo.Type)
}

func partyEmail(p *domain.Party) string {
	if p == nil {
		return ""
	}
	return p.Email
}

func partyName(p *domain.Party) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func collectEmails(emails ...string) []string {
	var out []string
	for _, e := range emails {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "TBA"
	}
	return t.Format("02/01/2006")
}

const pendingTemplate = `<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Shipment {{.Reference}} is now pending</h2>
  <p>Dear {{if .Shipper}}{{.Shipper}}{{else}}Customer{{end}},</p>
  <p>Your shipment has been registered and is awaiting booking confirmation.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Reference</strong></td><td>{{.Reference}}</td></tr>
    <tr><td><strong>Cargo</strong></td><td>{{.CargoLine}}</td></tr>
    <tr><td><strong>Origin</strong></td><td>{{.Origin}}</td></tr>
    <tr><td><strong>Destination</strong></td><td>{{.Destination}}</td></tr>
    {{if .Vessel}}<tr><td><strong>Vessel</strong></td><td>{{.Vessel}}</td></tr>{{end}}
    <tr><td><strong>ETD</strong></td><td>{{.ETD}}</td></tr>
    <tr><td><strong>ETA</strong></td><td>{{.ETA}}</td></tr>
  </table>
  <p>We will keep you informed as your shipment progresses.</p>
  <p>Ellcworth Shipping</p>
</body>
</html>`

const deliveredTemplate = `<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Shipment {{.Reference}} has been delivered</h2>
  <p>Dear {{if .Consignee}}{{.Consignee}}{{else}}Customer{{end}},</p>
  <p>We are pleased to confirm that your shipment has been successfully delivered.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Reference</strong></td><td>{{.Reference}}</td></tr>
    <tr><td><strong>Cargo</strong></td><td>{{.CargoLine}}</td></tr>
    <tr><td><strong>Origin</strong></td><td>{{.Origin}}</td></tr>
    <tr><td><strong>Destination</strong></td><td>{{.Destination}}</td></tr>
    <tr><td><strong>Delivered on</strong></td><td>{{.DeliveredOn}}</td></tr>
  </table>
  <p>Thank you for shipping with us.</p>
  <p>Ellcworth Shipping</p>
</body>
</html>`
