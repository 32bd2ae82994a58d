package mailer

import (
	"log"
	"os"

	"cafe/src/lib"
)

// Dispatcher sends transition notifications over SMTP. Dispatch is
// fire-and-forget: the booking flow never waits on delivery.
type Dispatcher struct{}

func (d *Dispatcher) Dispatch(to string, subject string, body string) {
	go func() {
		if to == "" {
			return
		}
		input := &lib.SendMailInput{
			From:     os.Getenv("SMTP_FROM"),
			FromName: "noreply",
			To:       []string{to},
			Subject:  subject,
			Body:     body,
			Html:     true,
		}
		if err := lib.SendMail(input); err != nil {
			log.Printf("Could not send notification email to [%s]: %s\n", to, err.Error())
		}
	}()
}
