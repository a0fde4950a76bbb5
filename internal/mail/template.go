package mail

import (
	"fmt"
	"time"
)

// BuildReminderHTML renders the reminder notification body.
func BuildReminderHTML(title, description string, eventDate time.Time) string {
	desc := description
	if desc == "" {
		desc = "—"
	}

	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; background:#f4f4f5; padding:20px;">
  <div style="max-width:520px; margin:0 auto; background:#ffffff; border-radius:12px; overflow:hidden; border:1px solid #e5e7eb;">
    <div style="background:#2563eb; color:#fff; padding:16px 20px; font-size:18px; font-weight:600;">
      Reminder: %s
    </div>
    <div style="padding:20px;">
      <p style="margin:0 0 12px 0; color:#374151;">Hi,</p>
      <p style="margin:0 0 16px 0; color:#374151;">This is a friendly reminder for your event.</p>

      <table style="width:100%%; border-collapse:collapse; margin-top:10px;">
        <tr>
          <td style="padding:8px 0; color:#6b7280; width:110px;">Title:</td>
          <td style="padding:8px 0; color:#111827; font-weight:500;">%s</td>
        </tr>
        <tr>
          <td style="padding:8px 0; color:#6b7280;">Event date:</td>
          <td style="padding:8px 0; color:#111827;">%s</td>
        </tr>
        <tr>
          <td style="padding:8px 0; color:#6b7280; vertical-align:top;">Description:</td>
          <td style="padding:8px 0; color:#111827;">%s</td>
        </tr>
      </table>

      <p style="margin-top:20px; font-size:12px; color:#9ca3af;">
        You received this email because you created a reminder in Remindly.
      </p>
    </div>
  </div>
</div>`,
		title, title, eventDate.Format("2006-01-02"), desc)
}
