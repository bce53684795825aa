package mail

import "fmt"

// VerificationSubject is the subject line of every confirmation email.
const VerificationSubject = "Email confirmation"

// VerificationText renders the plain-text body carrying the confirmation link.
func VerificationText(link string) string {
	return fmt.Sprintf("Please confirm your email address by following this link:\n\n%s\n\nIf you did not sign up, you can ignore this message.\n", link)
}

// VerificationHTML renders the HTML body carrying the confirmation link.
func VerificationHTML(link string) string {
	return fmt.Sprintf(`<p>Please confirm your email address by following this link:</p><p><a href="%[1]s">%[1]s</a></p><p>If you did not sign up, you can ignore this message.</p>`, link)
}
