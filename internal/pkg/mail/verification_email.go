package mail

import (
	"fmt"
	"html"
)

const guestPhotoContentID = "guest-photo"

// VerificationEmailData is the verified guest identity a reception email is
// built from.
type VerificationEmailData struct {
	RecipientName    string
	OrganizationName string
	VerificationDate string
	GuestName        string
	GuestDOB         string
	GuestGender      string
	GuestAddress     string
	GuestPincode     string
	CheckInID        string
	GuestImage       string // base64 JPEG, optional
}

// NewVerificationMessage assembles the reception notification for one
// address. The guest photo, when present, travels inline and is referenced
// from the HTML body by content id.
func NewVerificationMessage(to string, data VerificationEmailData) Message {
	subject := fmt.Sprintf("CheckIn Complete - %s", data.OrganizationName)
	text := fmt.Sprintf("Dear %s, your CheckIn for %s is complete. ID: %s",
		data.RecipientName, data.OrganizationName, data.CheckInID)

	photoBlock := ""
	if data.GuestImage != "" {
		photoBlock = fmt.Sprintf(`<p><img src="cid:%s" alt="Guest photo" style="max-width: 180px; border-radius: 5px;"/></p>`, guestPhotoContentID)
	}

	htmlBody := fmt.Sprintf(`
        <div style="font-family: sans-serif; max-width: 600px; margin: auto; border: 1px solid #eee; padding: 20px; border-radius: 10px;">
            <h2 style="color: #4A90E2;">CheckIn Complete</h2>
            <p>Dear <strong>%s</strong>,</p>
            <p>Your identity verification for <strong>%s</strong> has been completed successfully.</p>
            %s
            <div style="background: #f9f9f9; padding: 15px; border-radius: 5px; margin: 20px 0;">
                <h3 style="margin-top: 0;">Verified Details:</h3>
                <ul style="list-style: none; padding: 0; margin: 0;">
                    <li><strong>Name:</strong> %s</li>
                    <li><strong>DOB:</strong> %s</li>
                    <li><strong>Gender:</strong> %s</li>
                    <li><strong>Address:</strong> %s</li>
                    <li><strong>Pincode:</strong> %s</li>
                </ul>
            </div>
            <p style="color: #666;">Verification ID: <code>%s</code></p>
            <p style="margin-top: 30px; font-size: 0.8em; color: #999;">Verified on: %s</p>
        </div>`,
		html.EscapeString(data.RecipientName),
		html.EscapeString(data.OrganizationName),
		photoBlock,
		html.EscapeString(data.GuestName),
		html.EscapeString(data.GuestDOB),
		html.EscapeString(data.GuestGender),
		html.EscapeString(data.GuestAddress),
		html.EscapeString(data.GuestPincode),
		html.EscapeString(data.CheckInID),
		html.EscapeString(data.VerificationDate),
	)

	msg := Message{
		To:      to,
		Subject: subject,
		Text:    text,
		HTML:    htmlBody,
	}
	if data.GuestImage != "" {
		msg.Attachments = []Attachment{{
			Filename:    fmt.Sprintf("%s.jpg", data.GuestName),
			ContentType: "image/jpeg",
			ContentID:   guestPhotoContentID,
			Base64:      data.GuestImage,
		}}
	}
	return msg
}
