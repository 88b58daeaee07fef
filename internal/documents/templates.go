// templates.go holds the built-in responsibility term templates used when the
// parameter store has no operator-supplied override, plus the seed entries
// written on startup so operators can edit them in place.
package documents

import "github.com/curiango/curiango/internal/db/models"

// Placeholder names recognized in term templates.
//
//	{{ NAME }}              custodian's full name
//	{{ TAX_ID }}            custodian's tax ID, "-" when absent
//	{{ BADGE_NUMBER }}      custodian's badge number, "-" when absent
//	{{ EQUIPMENT_DETAILS }} full equipment description (Describe)
//	{{ EQUIPMENT_VALUE }}   formatted value, "Not informed" when absent
//	{{ ACCESSORIES }}       accessories list, "Not available" when absent
//	{{ STATUS }}            asset condition label
const defaultTermTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>Equipment Responsibility Term</title>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { text-align: center; margin-bottom: 30px; }
        .content { line-height: 1.6; }
        .signature { margin-top: 50px; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>EQUIPMENT RESPONSIBILITY TERM</h2>
    </div>

    <div class="content">
        <p>I, <strong>{{ NAME }}</strong>, tax ID <strong>{{ TAX_ID }}</strong>, badge number <strong>{{ BADGE_NUMBER }}</strong>, declare that I have received the following equipment:</p>

        <p><strong>Equipment:</strong> {{ EQUIPMENT_DETAILS }}</p>
        <p><strong>Condition:</strong> {{ STATUS }}</p>
        <p><strong>Accessories:</strong> {{ ACCESSORIES }}</p>
        <p><strong>Value:</strong> {{ EQUIPMENT_VALUE }}</p>

        <p>I commit to:</p>
        <ul>
            <li>Use the equipment for professional purposes only</li>
            <li>Preserve the physical integrity of the equipment</li>
            <li>Immediately report any damage or malfunction</li>
            <li>Return the equipment when requested</li>
        </ul>

        <p>I acknowledge that I am responsible for the equipment received and accept the following conditions:</p>

        <p><strong>A –</strong> If the equipment is lost, damaged, or rendered unusable through improper use or negligence, I shall reimburse the company the amount of {{ EQUIPMENT_VALUE }};</p>

        <p><strong>B –</strong> In case of damage or loss I shall notify the company immediately and in writing;</p>

        <p><strong>C –</strong> The equipment may be inspected by the company at any time;</p>

        <p><strong>D –</strong> The contents of the equipment must not be disclosed or shared without the company's express authorization;</p>

        <p><strong>E –</strong> Upon contract termination for any reason, I shall return the equipment in perfect condition by the settlement date, under penalty of paying the amount above;</p>
    </div>

    <div class="signature">
        <p>Date: ___/___/______</p>
        <br><br>
        <p>_________________________________</p>
        <p>{{ NAME }}</p>
        <p>Tax ID: {{ TAX_ID }}</p>
    </div>
</body>
</html>`

const defaultSIMTermTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>SIM Card Responsibility Term</title>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { text-align: center; margin-bottom: 30px; }
        .content { line-height: 1.6; }
        .signature { margin-top: 50px; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>RESPONSIBILITY TERM - SIM CARD</h2>
    </div>

    <div class="content">
        <p>I, <strong>{{ NAME }}</strong>, tax ID <strong>{{ TAX_ID }}</strong>, badge number <strong>{{ BADGE_NUMBER }}</strong>, declare that I have received the following item:</p>

        <p><strong>SIM card:</strong> {{ EQUIPMENT_DETAILS }}</p>
        <p><strong>Value:</strong> {{ EQUIPMENT_VALUE }}</p>

        <p>I commit to:</p>
        <ul>
            <li>Use the SIM card for professional purposes only</li>
            <li>Not share or lend the SIM card to third parties</li>
            <li>Immediately report any loss, theft, or malfunction so the line can be blocked</li>
            <li>Use the SIM card only in equipment authorized by the company</li>
            <li>Return the SIM card when requested</li>
        </ul>

        <p>I acknowledge that I am responsible for all call and data charges generated by this line, that its usage may be monitored by the company at any time, and that upon contract termination I shall return the SIM card by the settlement date.</p>
    </div>

    <div class="signature">
        <p>Date: ___/___/______</p>
        <br><br>
        <p>_________________________________</p>
        <p>{{ NAME }}</p>
        <p>Tax ID: {{ TAX_ID }}</p>
    </div>
</body>
</html>`

func ptr(s string) *string { return &s }

// DefaultParameters returns the term template seed entries written to the
// parameter store on startup when the keys do not exist yet.
func DefaultParameters() []models.Parameter {
	return []models.Parameter{
		{
			Key:         models.ParamTermSmartphone,
			Value:       ptr(defaultTermTemplate),
			Kind:        models.ParameterHTML,
			Description: ptr("HTML template of the responsibility term for smartphones"),
			Active:      true,
		},
		{
			Key:         models.ParamTermNotebook,
			Value:       ptr(defaultTermTemplate),
			Kind:        models.ParameterHTML,
			Description: ptr("HTML template of the responsibility term for notebooks and desktops"),
			Active:      true,
		},
		{
			Key:         models.ParamTermSIMCard,
			Value:       ptr(defaultSIMTermTemplate),
			Kind:        models.ParameterHTML,
			Description: ptr("HTML template of the responsibility term for SIM cards"),
			Active:      true,
		},
	}
}
