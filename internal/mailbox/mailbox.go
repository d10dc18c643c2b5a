// Package mailbox retrieves receipt PDFs attached to e-mails. It only
// produces raw attachment bytes; parsing and archiving stay with the caller.
package mailbox

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Attachment is one file pulled from a message.
type Attachment struct {
	Filename string
	Data     []byte
}

// Fetcher retrieves receipt attachments. Fetch returns everything it found;
// results are never accumulated in package state across calls.
type Fetcher interface {
	Fetch() ([]Attachment, error)
}

// Config holds the IMAP connection settings.
type Config struct {
	// Addr is host:port of the IMAP server, TLS is always used.
	Addr     string
	Username string
	Password string
	// Mailbox defaults to INBOX.
	Mailbox string
	// From, when set, restricts the search to messages from this sender.
	From string
}

// IMAPFetcher implements Fetcher against an IMAP server.
type IMAPFetcher struct {
	config Config
}

// NewIMAPFetcher creates a new IMAPFetcher.
func NewIMAPFetcher(config Config) (*IMAPFetcher, error) {
	if config.Addr == "" || config.Username == "" || config.Password == "" {
		return nil, fmt.Errorf("imap address, username and password are required")
	}
	if config.Mailbox == "" {
		config.Mailbox = "INBOX"
	}
	return &IMAPFetcher{config: config}, nil
}

// Fetch connects, searches the mailbox and returns all PDF attachments of the
// matching messages. Messages without PDF attachments are skipped silently.
func (f *IMAPFetcher) Fetch() ([]Attachment, error) {
	c, err := client.DialTLS(f.config.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing imap server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(f.config.Username, f.config.Password); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	mbox, err := c.Select(f.config.Mailbox, true)
	if err != nil {
		return nil, fmt.Errorf("selecting mailbox %q: %w", f.config.Mailbox, err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	if f.config.From != "" {
		criteria.Header.Add("From", f.config.From)
	}
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("searching mailbox: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var attachments []Attachment
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		found, err := collectPDFAttachments(body)
		if err != nil {
			slog.Warn("Failed to read message", "seq", msg.SeqNum, "error", err)
			continue
		}
		attachments = append(attachments, found...)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	slog.Info("Fetched mailbox", "messages", len(ids), "pdf_attachments", len(attachments))
	return attachments, nil
}

// collectPDFAttachments walks the MIME parts of one message.
func collectPDFAttachments(body io.Reader) ([]Attachment, error) {
	mr, err := mail.CreateReader(body)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}

	var attachments []Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading message part: %w", err)
		}

		header, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}

		filename, err := header.Filename()
		if err != nil || !IsPDF(filename) {
			continue
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("reading attachment %q: %w", filename, err)
		}
		attachments = append(attachments, Attachment{Filename: filename, Data: data})
	}

	return attachments, nil
}

// IsPDF reports whether a filename looks like a PDF attachment.
func IsPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".pdf")
}
