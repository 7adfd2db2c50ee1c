package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// Service sends alert emails via the Resend API
type Service struct {
	apiKey    string
	fromEmail string
}

// NewService creates a new email service instance
func NewService() *Service {
	return &Service{
		apiKey:    os.Getenv("RESEND_API_KEY"),
		fromEmail: os.Getenv("EMAIL_FROM_ADDRESS"),
	}
}

// IsConfigured checks if the email service is properly configured
func (s *Service) IsConfigured() bool {
	return s.apiKey != "" && s.fromEmail != ""
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendEmail sends an email using the Resend API
func (s *Service) SendEmail(to, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email service not configured")
	}

	payload := sendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}

	return nil
}

// SendReorderAlert notifies the store owner that an ingredient's stock has
// fallen to or below its reorder level.
func (s *Service) SendReorderAlert(toEmail, storeName, ingredientName, unitName string, stock, reorderLevel float64) error {
	subject := fmt.Sprintf("Low stock alert: %s", ingredientName)
	html := fmt.Sprintf(`
		<h2>Low stock alert</h2>
		<p>Hi, this is an automatic inventory alert for <strong>%s</strong>.</p>
		<p><strong>%s</strong> is running low:</p>
		<ul>
			<li>Current stock: %.2f %s</li>
			<li>Reorder level: %.2f %s</li>
		</ul>
		<p>Consider creating a new ingredient batch before the item goes out of stock.</p>
	`, storeName, ingredientName, stock, unitName, reorderLevel, unitName)

	return s.SendEmail(toEmail, subject, html)
}
