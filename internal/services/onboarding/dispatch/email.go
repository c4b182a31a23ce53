package dispatch

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

const subjectPrefix = "Follow-up Required: Vendor Onboarding - "

var nextSteps = []string{
	"Click the link above to access your vendor portal",
	"Review and correct the mentioned fields",
	"Re-submit your onboarding form",
}

// Email is a rendered follow-up email.
type Email struct {
	Subject  string
	HTMLBody string
	TextBody string
}

type emailView struct {
	VendorName string
	Details    string
	PortalLink string
	TeamName   string
}

type htmlEmailView struct {
	VendorName  string
	DetailLines []string
	PortalLink  string
	NextSteps   []string
	TeamName    string
}

// PortalLink returns the vendor login link carrying the resume token, or ""
// when no token is available.
func PortalLink(portalURL, token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return strings.TrimRight(portalURL, "/") + "/vendor-login?token=" + token
}

// RenderEmail builds the subject and both bodies for a follow-up message.
func RenderEmail(ctx context.Context, msg Message, company render.Company) (Email, error) {
	view := emailView{
		VendorName: msg.VendorName,
		Details:    msg.Body,
		PortalLink: PortalLink(company.PortalURL, msg.ResumeToken),
		TeamName:   teamName(company),
	}
	var html bytes.Buffer
	if err := followUpEmail(view).Render(ctx, &html); err != nil {
		return Email{}, fmt.Errorf("render follow-up email: %w", err)
	}
	return Email{
		Subject:  subjectPrefix + msg.Type.Description(),
		HTMLBody: html.String(),
		TextBody: textBody(view),
	}, nil
}

func teamName(company render.Company) string {
	if name := strings.TrimSpace(company.Name); name != "" {
		return name + " Procurement Team"
	}
	return "Procurement Team"
}

func textBody(view emailView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", view.VendorName)
	b.WriteString("We need your attention regarding your vendor onboarding submission.\n\n")
	b.WriteString("Issue Details:\n")
	b.WriteString(view.Details)
	b.WriteString("\n\n")
	if view.PortalLink != "" {
		b.WriteString("Please click on the following link to access your vendor portal and update your information:\n")
		b.WriteString(view.PortalLink)
		b.WriteString("\n\n")
	}
	b.WriteString("What you need to do:\n")
	for i, step := range nextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\nIf you have any questions or need assistance, please contact our support team.\n\n")
	b.WriteString("Thank you for your prompt attention to this matter.\n\n")
	b.WriteString("Best regards,\n")
	b.WriteString(view.TeamName)
	return b.String()
}

// followUpEmail renders the HTML body. Every field goes through
// html/template escaping, including the portal link's URL filtering.
func followUpEmail(view emailView) templ.Component {
	return templ.FromGoHTML(emailTemplates.Lookup("follow_up_email"), htmlEmailView{
		VendorName:  view.VendorName,
		DetailLines: strings.Split(view.Details, "\n"),
		PortalLink:  view.PortalLink,
		NextSteps:   nextSteps,
		TeamName:    view.TeamName,
	})
}
