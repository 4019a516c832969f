package share

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/furisto/debrief/backend/debrief"
)

// Channel hands a digest to an external surface. Delivery is fire and
// forget: a nil error only means the hand-off succeeded.
type Channel interface {
	Name() string
	Share(ctx context.Context, subject, body string) error
}

// Opener opens a URL with the desktop's default handler.
type Opener func(ctx context.Context, target string) error

// Copier places text on the system clipboard.
type Copier func(text string) error

type WhatsApp struct {
	Open Opener
}

func (w *WhatsApp) Name() string { return "whatsapp" }

func (w *WhatsApp) Share(ctx context.Context, subject, body string) error {
	return w.Open(ctx, WhatsAppLink(body))
}

type Email struct {
	Open Opener
}

func (e *Email) Name() string { return "email" }

func (e *Email) Share(ctx context.Context, subject, body string) error {
	return e.Open(ctx, MailtoLink(subject, body))
}

// Native copies the digest to the clipboard, the terminal's closest
// equivalent of a platform share sheet.
type Native struct {
	Copy Copier
}

func (n *Native) Name() string { return "native" }

func (n *Native) Share(ctx context.Context, subject, body string) error {
	if err := n.Copy(body); err != nil {
		return fmt.Errorf("failed to copy digest to clipboard: %w", err)
	}
	return nil
}

func WhatsAppLink(text string) string {
	return "https://wa.me/?text=" + encodeComponent(text)
}

func MailtoLink(subject, body string) string {
	return "mailto:?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body)
}

// encodeComponent escapes s for use inside a query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Subject is the message subject used for a record.
func Subject(record debrief.Record) string {
	return "Debrief summary: " + Title(record)
}

// Channels returns the built-in channels keyed by name.
func Channels(opener Opener, copier Copier) map[string]Channel {
	if opener == nil {
		opener = OpenURL
	}
	if copier == nil {
		copier = clipboard.WriteAll
	}

	channels := []Channel{
		&WhatsApp{Open: opener},
		&Email{Open: opener},
		&Native{Copy: copier},
	}

	out := make(map[string]Channel, len(channels))
	for _, c := range channels {
		out[c.Name()] = c
	}
	return out
}

// ChannelNames lists the built-in channel names in sorted order.
func ChannelNames() []string {
	names := make([]string, 0, 3)
	for name := range Channels(nil, nil) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Send renders record and hands it to channel.
func Send(ctx context.Context, channel Channel, record debrief.Record) error {
	return channel.Share(ctx, Subject(record), Digest(record))
}

// OpenURL opens target with the platform's URL handler.
func OpenURL(ctx context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", strings.SplitN(target, ":", 2)[0], err)
	}
	go cmd.Wait()
	return nil
}
