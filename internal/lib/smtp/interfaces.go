// Package smtp отправляет письма через SMTP-сервер с помощью gomail.
package smtp

import "gopkg.in/gomail.v2"

// Dialer открывает соединение с SMTP-сервером и отправляет письма.
// *gomail.Dialer удовлетворяет этому интерфейсу.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}
