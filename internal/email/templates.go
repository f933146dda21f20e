package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const collectionDateLayout = "2 January 2006"

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	JobID      string
	ClientName string
}

type quoteProvidedEmailData struct {
	baseEmailData
	Amount      string
	Information string
}

type jobCollectedEmailData struct {
	baseEmailData
	CollectionDate string
	CustomerName   string
	DriverName     string
}

type jobCompletedEmailData struct {
	baseEmailData
	ItemCount int
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyGBP(amount decimal.Decimal) string {
	return "£" + amount.StringFixed(2)
}

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

func renderQuoteProvided(msg QuoteProvided) (string, string, error) {
	content, err := renderEmailTemplate("quote_provided.html", quoteProvidedEmailData{
		baseEmailData: baseEmailData{
			Title:      "Your quote is ready",
			Heading:    "Your quote is ready",
			JobID:      msg.JobID,
			ClientName: greetingName(msg.ClientName),
		},
		Amount:      formatCurrencyGBP(msg.Amount),
		Information: msg.Information,
	})
	return fmt.Sprintf(subjectQuoteProvidedFmt, msg.JobID), content, err
}

func renderJobCollected(msg JobCollected) (string, string, error) {
	var date string
	if msg.CollectionDate != nil {
		date = msg.CollectionDate.Format(collectionDateLayout)
	}
	content, err := renderEmailTemplate("job_collected.html", jobCollectedEmailData{
		baseEmailData: baseEmailData{
			Title:      "Collection confirmed",
			Heading:    "Collection confirmed",
			JobID:      msg.JobID,
			ClientName: greetingName(msg.ClientName),
		},
		CollectionDate: date,
		CustomerName:   msg.CustomerName,
		DriverName:     msg.DriverName,
	})
	return fmt.Sprintf(subjectJobCollectedFmt, msg.JobID), content, err
}

func renderJobCompleted(msg JobCompleted) (string, string, error) {
	content, err := renderEmailTemplate("job_completed.html", jobCompletedEmailData{
		baseEmailData: baseEmailData{
			Title:      "Processing complete",
			Heading:    "Processing complete",
			Subheading: "Your equipment has been processed",
			JobID:      msg.JobID,
			ClientName: greetingName(msg.ClientName),
		},
		ItemCount: msg.ItemCount,
	})
	return fmt.Sprintf(subjectJobCompletedFmt, msg.JobID), content, err
}
