package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMTPMailer_Send_NoRecipientsIsNoop(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25})
	err := m.Send(context.Background(), Message{Subject: "test", Body: "body"})
	assert.NoError(t, err)
}

func TestNopMailer_Send_AlwaysSucceeds(t *testing.T) {
	var m Mailer = NopMailer{}
	assert.NoError(t, m.Send(context.Background(), Message{Subject: "x"}))
}
