package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/curiango/curiango/internal/db/models"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubMailer struct {
	sent []*Message
	err  error
}

func (s *stubMailer) Send(ctx context.Context, msg *Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubParams struct {
	values map[string]string
	err    error
}

func (s *stubParams) GetByKey(ctx context.Context, key string) (*models.Parameter, error) {
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	return &models.Parameter{Key: key, Value: &v, Active: true}, nil
}

func custodianWithEmail() *models.Employee {
	email := "alice@example.com"
	return &models.Employee{ID: 7, Name: "Alice Jones", Email: &email}
}

func sampleAsset() *models.Asset {
	return &models.Asset{
		ID:       42,
		Category: models.CategorySmartphone,
		Details: models.AssetDetails{
			Phone: &models.PhoneDetails{Model: ptr("Galaxy S24")},
		},
	}
}

// ---------------------------------------------------------------------------
// SendAllocationNotice
// ---------------------------------------------------------------------------

func TestSendAllocationNotice_AttachesDocument(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &stubParams{})

	pdf := []byte("%PDF-1.4 fake")
	err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodianWithEmail(), nil, pdf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mailer.sent))
	}

	msg := mailer.sent[0]
	if msg.To[0] != "alice@example.com" {
		t.Errorf("recipient = %q", msg.To[0])
	}
	if msg.Attachment == nil {
		t.Fatal("expected attachment")
	}
	if msg.Attachment.Filename != AttachmentFilename {
		t.Errorf("attachment filename = %q", msg.Attachment.Filename)
	}
	if msg.Attachment.MIMEType != "application/pdf" {
		t.Errorf("attachment mime type = %q", msg.Attachment.MIMEType)
	}
	if string(msg.Attachment.Data) != string(pdf) {
		t.Error("attachment data mismatch")
	}
}

func TestSendAllocationNotice_NoDocumentNoAttachment(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &stubParams{})

	if err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodianWithEmail(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mailer.sent[0].Attachment != nil {
		t.Error("expected no attachment")
	}
}

func TestSendAllocationNotice_SubstitutesTemplateVariables(t *testing.T) {
	mailer := &stubMailer{}
	params := &stubParams{values: map[string]string{
		models.ParamAllocationSubject: "asset {{ ASSET_DESCRIPTION }} for {{ NAME }}",
		models.ParamAllocationBody:    "Dear {{ NAME }}, delivered on {{ DATE }}",
	}}
	d := NewDispatcher(mailer, params)

	if err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodianWithEmail(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := mailer.sent[0]
	if want := "asset Galaxy S24 for Alice Jones"; msg.Subject != want {
		t.Errorf("subject = %q, want %q", msg.Subject, want)
	}
	if !strings.HasPrefix(msg.Body, "Dear Alice Jones, delivered on ") {
		t.Errorf("body = %q", msg.Body)
	}
	if strings.Contains(msg.Body, "{{") {
		t.Errorf("placeholders left in body: %q", msg.Body)
	}
}

func TestSendAllocationNotice_NoCustodianEmailSkipsSilently(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &stubParams{})

	custodian := &models.Employee{ID: 7, Name: "Alice Jones"}
	if err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodian, nil, nil); err != nil {
		t.Fatalf("expected nil error when custodian has no email, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("no message should be sent")
	}
}

func TestSendAllocationNotice_CopiesSectorResponsible(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &stubParams{})

	sector := &models.Sector{ID: 3, Name: "IT", ResponsibleEmail: ptr("lead@example.com"), Active: true}
	if err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodianWithEmail(), sector, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	to := mailer.sent[0].To
	if len(to) != 2 || to[1] != "lead@example.com" {
		t.Errorf("recipients = %v", to)
	}
}

func TestSendAllocationNotice_InactiveSectorNotCopied(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &stubParams{})

	sector := &models.Sector{ID: 3, ResponsibleEmail: ptr("lead@example.com"), Active: false}
	if err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodianWithEmail(), sector, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent[0].To) != 1 {
		t.Errorf("recipients = %v", mailer.sent[0].To)
	}
}

func TestSendAllocationNotice_DuplicateSectorEmailNotRepeated(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &stubParams{})

	sector := &models.Sector{ID: 3, ResponsibleEmail: ptr("alice@example.com"), Active: true}
	if err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodianWithEmail(), sector, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent[0].To) != 1 {
		t.Errorf("recipients = %v", mailer.sent[0].To)
	}
}

func TestSendAllocationNotice_MailerErrorPropagates(t *testing.T) {
	d := NewDispatcher(&stubMailer{err: errors.New("smtp down")}, &stubParams{})

	err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodianWithEmail(), nil, nil)
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestSendAllocationNotice_ParameterErrorFallsBackToBuiltin(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &stubParams{err: errors.New("db down")})

	if err := d.SendAllocationNotice(context.Background(), sampleAsset(), custodianWithEmail(), nil, nil); err != nil {
		t.Fatalf("template lookup failure must not block delivery: %v", err)
	}
	if !strings.Contains(mailer.sent[0].Body, "allocated to you") {
		t.Errorf("built-in body not used: %q", mailer.sent[0].Body)
	}
}

// ---------------------------------------------------------------------------
// SendReturnNotice
// ---------------------------------------------------------------------------

func TestSendReturnNotice_UsesReturnTemplates(t *testing.T) {
	mailer := &stubMailer{}
	params := &stubParams{values: map[string]string{
		models.ParamReturnSubject: "returned: {{ ASSET_DESCRIPTION }}",
	}}
	d := NewDispatcher(mailer, params)

	if err := d.SendReturnNotice(context.Background(), sampleAsset(), custodianWithEmail(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := mailer.sent[0]
	if msg.Subject != "returned: Galaxy S24" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.Attachment != nil {
		t.Error("return notice must not carry an attachment")
	}
	if !strings.Contains(msg.Body, "no longer under your responsibility") {
		t.Errorf("built-in return body not used: %q", msg.Body)
	}
}

func TestSendReturnNotice_NoEmailSkipsSilently(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &stubParams{})

	custodian := &models.Employee{ID: 7, Name: "Bob Smith"}
	if err := d.SendReturnNotice(context.Background(), sampleAsset(), custodian, nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("no message should be sent")
	}
}

// ---------------------------------------------------------------------------
// DefaultParameters
// ---------------------------------------------------------------------------

func TestDefaultParameters_CoversAllTemplateKeys(t *testing.T) {
	want := map[string]bool{
		models.ParamAllocationSubject: false,
		models.ParamAllocationBody:    false,
		models.ParamReturnSubject:     false,
		models.ParamReturnBody:        false,
	}
	for _, p := range DefaultParameters() {
		if _, ok := want[p.Key]; !ok {
			t.Errorf("unexpected parameter key %q", p.Key)
			continue
		}
		want[p.Key] = true
		if p.Kind != models.ParameterEmail {
			t.Errorf("parameter %q kind = %q", p.Key, p.Kind)
		}
		if p.Value == nil || *p.Value == "" {
			t.Errorf("parameter %q has empty value", p.Key)
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("missing default for %q", key)
		}
	}
}
