package notify

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

// Confirmation is everything the booking confirmation email needs. Amount is
// in major currency units.
type Confirmation struct {
	ToEmail   string
	Name      string
	BookingID string
	HotelName string
	Address   string
	CheckIn   string
	Amount    int64
}

type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger observability.Logger
}

func NewMailer(host string, port int, user, pass, from string, logger observability.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
		logger: logger,
	}
}

func (m *Mailer) SendBookingConfirmation(c Confirmation) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", c.ToEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Booking confirmed: %s", c.HotelName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour booking %s at %s (%s) is confirmed.\nCheck-in: %s\nTotal amount: %d\n\nSee you soon!\n",
		c.Name, c.BookingID, c.HotelName, c.Address, c.CheckIn, c.Amount,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.WithError(err).WithField("booking_id", c.BookingID).Error("failed to send confirmation email")
		observability.MailSendFailures.Inc()
		return err
	}
	return nil
}
