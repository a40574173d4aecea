// Package emailer delivers meeting notes over SMTP.
//
// Each message uses the subject "Meeting Notes — <label>", carries the
// summary as a plain-text body, and attaches the transcript file. STARTTLS,
// implicit TLS, and plaintext relays are supported through the email.tls
// setting.
package emailer
