package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != defaultFromName {
		t.Errorf("expected default from name %q, got %q", defaultFromName, sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})

	if err == nil {
		t.Error("expected error when client is nil")
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "agenda@salaobella.com.br", ConfigurationSet: "salon-events"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "dona@salaobella.com.br",
		ToName:  "Dona",
		Subject: "Novo agendamento",
		Body:    "texto",
		HTML:    "<p>html</p>",
		Tags:    map[string]string{"event": "booking.created", "booking_id": "bk 1"},
	})
	require.NoError(t, err)

	in := fake.input
	require.NotNil(t, in)
	assert.Equal(t, "=?utf-8?q?Sal=C3=A3o_Bella?= <agenda@salaobella.com.br>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{`"Dona" <dona@salaobella.com.br>`}, in.Destination.ToAddresses)
	assert.Equal(t, "salon-events", aws.ToString(in.ConfigurationSetName))
	assert.Equal(t, "Novo agendamento", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Equal(t, "UTF-8", aws.ToString(in.Content.Simple.Subject.Charset))
	assert.Equal(t, "texto", aws.ToString(in.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(in.Content.Simple.Body.Html.Data))

	require.Len(t, in.EmailTags, 2)
	assert.Equal(t, "booking_id", aws.ToString(in.EmailTags[0].Name))
	assert.Equal(t, "bk_1", aws.ToString(in.EmailTags[0].Value))
	assert.Equal(t, "event", aws.ToString(in.EmailTags[1].Name))
	assert.Equal(t, "booking.created", aws.ToString(in.EmailTags[1].Value))
}

func TestSESSender_SendTextOnlyWithoutConfigurationSet(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "agenda@salaobella.com.br", FromName: "Agenda"}, nil)

	require.NoError(t, sender.Send(context.Background(), EmailMessage{To: "x@example.com", Subject: "s", Body: "b"}))
	in := fake.input
	assert.Equal(t, `"Agenda" <agenda@salaobella.com.br>`, aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"x@example.com"}, in.Destination.ToAddresses)
	assert.Nil(t, in.ConfigurationSetName)
	assert.Nil(t, in.Content.Simple.Body.Html)
	assert.Empty(t, in.EmailTags)
}

func TestSESSender_SendRejectsAndWrapsErrors(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "agenda@salaobella.com.br"}, nil)

	require.Error(t, sender.Send(context.Background(), EmailMessage{Subject: "s", Body: "b"}))
	require.Error(t, sender.Send(context.Background(), EmailMessage{To: "x@example.com", Subject: "s"}))
	assert.Nil(t, fake.input)

	fake.err = errors.New("throttled")
	err := sender.Send(context.Background(), EmailMessage{To: "x@example.com", Subject: "s", Body: "b"})
	require.ErrorIs(t, err, fake.err)
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})

	require.NoError(t, err)
	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, "Test Subject", sender.Sent()[0].Subject)
}
