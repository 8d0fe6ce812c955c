// Package notifier contains the core domain types for the motivational design notification service.
package notifier

// Design is a candidate post that survived the video and promotion filters:
// a downloaded image plus the text read off it.
type Design struct {
	Shortcode string // Post shortcode the image came from
	PostURL   string // Canonical post URL, used for the email footer link
	ImagePath string // Downloaded image on local disk
	Text      string // Extracted text, space-joined and lowercased
}
