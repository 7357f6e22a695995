// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// LeadAssignedData holds data for the lead-assignment notification sent
// to the winning partner's contact address.
type LeadAssignedData struct {
	SiteName    string
	PartnerName string
	LeadName    string
	Industry    string
	ServiceType string
	Message     string
}

// BuildLeadAssignedEmail creates a lead-assignment notification with
// both HTML and text bodies. The caller sets To / ToName.
func BuildLeadAssignedEmail(data LeadAssignedData) Email {
	return Email{
		Subject:  fmt.Sprintf("New lead for %s", data.PartnerName),
		TextBody: buildLeadAssignedText(data),
		HTMLBody: mustRender("lead_assigned", leadAssignedHTMLTemplate, data),
	}
}

func buildLeadAssignedText(data LeadAssignedData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "A new lead has been routed to %s on %s.\n\n", data.PartnerName, data.SiteName)
	fmt.Fprintf(&buf, "Name: %s\n", data.LeadName)
	fmt.Fprintf(&buf, "Industry: %s\n", data.Industry)
	fmt.Fprintf(&buf, "Service: %s\n", data.ServiceType)
	if data.Message != "" {
		fmt.Fprintf(&buf, "\nMessage:\n%s\n", data.Message)
	}
	buf.WriteString("\nSign in to view contact details and respond.\n")
	return buf.String()
}

// WaitlistOfferData holds data for the seat-offer email sent to the head
// of a cohort's waitlist when a seat opens.
type WaitlistOfferData struct {
	SiteName   string
	UserName   string
	CohortName string
}

// BuildWaitlistOfferEmail creates a waitlist seat-offer email.
func BuildWaitlistOfferEmail(data WaitlistOfferData) Email {
	return Email{
		Subject:  fmt.Sprintf("A seat opened in %s", data.CohortName),
		TextBody: buildWaitlistOfferText(data),
		HTMLBody: mustRender("waitlist_offer", waitlistOfferHTMLTemplate, data),
	}
}

func buildWaitlistOfferText(data WaitlistOfferData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi %s,\n\n", data.UserName)
	fmt.Fprintf(&buf, "A seat has opened in %s and you are next on the waitlist.\n", data.CohortName)
	fmt.Fprintf(&buf, "Sign in to %s to claim it before the offer expires.\n", data.SiteName)
	return buf.String()
}

// DigestData holds data for the weekly activity digest.
type DigestData struct {
	SiteName      string
	NewLeads      int
	AssignedLeads int
	ActiveCohorts int
	Transitions   int
}

// BuildDigestEmail creates the weekly digest email.
func BuildDigestEmail(data DigestData) Email {
	return Email{
		Subject:  fmt.Sprintf("%s weekly digest", data.SiteName),
		TextBody: buildDigestText(data),
		HTMLBody: mustRender("digest", digestHTMLTemplate, data),
	}
}

func buildDigestText(data DigestData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s activity this week:\n\n", data.SiteName)
	fmt.Fprintf(&buf, "New leads: %d\n", data.NewLeads)
	fmt.Fprintf(&buf, "Leads assigned: %d\n", data.AssignedLeads)
	fmt.Fprintf(&buf, "Active cohorts: %d\n", data.ActiveCohorts)
	fmt.Fprintf(&buf, "Lifecycle transitions: %d\n", data.Transitions)
	return buf.String()
}

func mustRender(name, tmpl string, data any) string {
	t := template.Must(template.New(name).Parse(tmpl))
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

const emailShellTop = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">`

const emailShellBottom = `</td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const leadAssignedHTMLTemplate = emailShellTop + `
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                A new lead has been routed to <strong>{{.PartnerName}}</strong>.
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6; border-radius: 8px; margin-bottom: 24px;">
                <tr><td style="padding: 8px 16px; font-size: 14px; color: #6b7280;">Name</td><td style="padding: 8px 16px; font-size: 14px; color: #1f2937;">{{.LeadName}}</td></tr>
                <tr><td style="padding: 8px 16px; font-size: 14px; color: #6b7280;">Industry</td><td style="padding: 8px 16px; font-size: 14px; color: #1f2937;">{{.Industry}}</td></tr>
                <tr><td style="padding: 8px 16px; font-size: 14px; color: #6b7280;">Service</td><td style="padding: 8px 16px; font-size: 14px; color: #1f2937;">{{.ServiceType}}</td></tr>
              </table>
              {{if .Message}}<p style="margin: 0 0 24px; font-size: 14px; color: #374151; line-height: 1.5;">{{.Message}}</p>{{end}}
              <p style="margin: 0; font-size: 13px; color: #9ca3af;">
                Sign in to view contact details and respond.
              </p>` + emailShellBottom

const waitlistOfferHTMLTemplate = emailShellTop + `
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.UserName}}, a seat has opened in <strong>{{.CohortName}}</strong> and you are next on the waitlist.
              </p>
              <p style="margin: 0; font-size: 13px; color: #9ca3af;">
                Sign in to claim it before the offer expires.
              </p>` + emailShellBottom

const digestHTMLTemplate = emailShellTop + `
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Activity this week:
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6; border-radius: 8px;">
                <tr><td style="padding: 8px 16px; font-size: 14px; color: #6b7280;">New leads</td><td style="padding: 8px 16px; font-size: 14px; color: #1f2937;">{{.NewLeads}}</td></tr>
                <tr><td style="padding: 8px 16px; font-size: 14px; color: #6b7280;">Leads assigned</td><td style="padding: 8px 16px; font-size: 14px; color: #1f2937;">{{.AssignedLeads}}</td></tr>
                <tr><td style="padding: 8px 16px; font-size: 14px; color: #6b7280;">Active cohorts</td><td style="padding: 8px 16px; font-size: 14px; color: #1f2937;">{{.ActiveCohorts}}</td></tr>
                <tr><td style="padding: 8px 16px; font-size: 14px; color: #6b7280;">Lifecycle transitions</td><td style="padding: 8px 16px; font-size: 14px; color: #1f2937;">{{.Transitions}}</td></tr>
              </table>` + emailShellBottom
