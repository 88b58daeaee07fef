// dispatcher.go resolves recipients and templates for allocation and return
// notices and hands the assembled message to the Mailer.
package notifications

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/curiango/curiango/internal/db/models"
	"github.com/curiango/curiango/internal/documents"
	"github.com/curiango/curiango/internal/telemetry"
)

// AttachmentFilename is the name of the responsibility term attached to
// allocation notices.
const AttachmentFilename = "responsibility_term.pdf"

// parameterStore supplies operator-editable subject and body templates.
// Satisfied by repositories.ParameterRepository.
type parameterStore interface {
	GetByKey(ctx context.Context, key string) (*models.Parameter, error)
}

// Dispatcher assembles and sends allocation workflow notices.
type Dispatcher struct {
	mailer Mailer
	params parameterStore
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(mailer Mailer, params parameterStore) *Dispatcher {
	return &Dispatcher{mailer: mailer, params: params}
}

// SendAllocationNotice emails the custodian (and their sector lead) that an
// asset was allocated to them, attaching the responsibility term. A custodian
// without an email address is skipped silently: that is an expected data
// state, not a delivery failure.
func (d *Dispatcher) SendAllocationNotice(ctx context.Context, asset *models.Asset, custodian *models.Employee, sector *models.Sector, document []byte) error {
	recipients := d.recipients(custodian, sector)
	if len(recipients) == 0 {
		slog.Info("custodian has no email address, skipping allocation notice",
			"employee_id", custodian.ID, "asset_id", asset.ID)
		return nil
	}

	vars := map[string]string{
		"NAME":              custodian.Name,
		"ASSET_DESCRIPTION": documents.ShortDescription(asset),
		"DATE":              time.Now().Format("2006-01-02"),
	}

	subject := d.renderTemplate(ctx, models.ParamAllocationSubject, defaultAllocationSubject, vars)
	body := d.renderTemplate(ctx, models.ParamAllocationBody, defaultAllocationBody, vars)

	msg := &Message{To: recipients, Subject: subject, Body: body}
	if len(document) > 0 {
		msg.Attachment = &Attachment{
			Filename: AttachmentFilename,
			MIMEType: "application/pdf",
			Data:     document,
		}
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		return err
	}
	telemetry.NotificationsSentTotal.WithLabelValues("allocation").Inc()
	return nil
}

// SendReturnNotice emails the previous custodian that the asset is no longer
// under their responsibility.
func (d *Dispatcher) SendReturnNotice(ctx context.Context, asset *models.Asset, custodian *models.Employee, sector *models.Sector) error {
	recipients := d.recipients(custodian, sector)
	if len(recipients) == 0 {
		slog.Info("custodian has no email address, skipping return notice",
			"employee_id", custodian.ID, "asset_id", asset.ID)
		return nil
	}

	vars := map[string]string{
		"NAME":              custodian.Name,
		"ASSET_DESCRIPTION": documents.ShortDescription(asset),
		"DATE":              time.Now().Format("2006-01-02"),
	}

	subject := d.renderTemplate(ctx, models.ParamReturnSubject, defaultReturnSubject, vars)
	body := d.renderTemplate(ctx, models.ParamReturnBody, defaultReturnBody, vars)

	if err := d.mailer.Send(ctx, &Message{To: recipients, Subject: subject, Body: body}); err != nil {
		return err
	}
	telemetry.NotificationsSentTotal.WithLabelValues("return").Inc()
	return nil
}

// recipients returns the custodian's email plus the active sector's
// responsible email when present and distinct. Empty when the custodian has
// no email.
func (d *Dispatcher) recipients(custodian *models.Employee, sector *models.Sector) []string {
	if custodian.Email == nil || *custodian.Email == "" {
		return nil
	}
	recipients := []string{*custodian.Email}

	if sector != nil && sector.Active && sector.ResponsibleEmail != nil &&
		*sector.ResponsibleEmail != "" && *sector.ResponsibleEmail != *custodian.Email {
		recipients = append(recipients, *sector.ResponsibleEmail)
	}
	return recipients
}

// renderTemplate resolves the template from the parameter store (falling back
// to the built-in default, also on lookup errors) and substitutes variables.
func (d *Dispatcher) renderTemplate(ctx context.Context, key, builtin string, vars map[string]string) string {
	tmpl := builtin
	param, err := d.params.GetByKey(ctx, key)
	if err != nil {
		slog.Warn("failed to load notification template, using default", "key", key, "error", err)
	} else if param != nil && param.Value != nil && *param.Value != "" {
		tmpl = *param.Value
	}

	out := tmpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{ "+k+" }}", v)
	}
	return out
}
