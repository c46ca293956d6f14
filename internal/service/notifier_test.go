package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"testing"

	"github.com/totegamma/craft-nft/internal/domain"
)

type mockMailer struct {
	sent []domain.Mail
	err  error
}

func (m *mockMailer) Send(ctx context.Context, mail domain.Mail) error {
	m.sent = append(m.sent, mail)
	return m.err
}

func testNotice() domain.PurchaseNotice {
	return domain.PurchaseNotice{
		Recipient: "buyer@example.com",
		Buyer:     "BuyerABC",
		Collectible: domain.Collectible{
			ID:          strings.Repeat("a", 64),
			ArtifactURI: "https://ipfs.io/ipfs/QmArt",
		},
	}
}

func TestSendPurchaseConfirmation(t *testing.T) {
	mailer := &mockMailer{}
	n := NewMailNotifier(mailer, "shop@example.com", "secret")

	if err := n.SendPurchaseConfirmation(context.Background(), testNotice()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	m := mailer.sent[0]
	if m.From != "shop@example.com" || m.To != "buyer@example.com" || m.Subject != "Your New NFT!" {
		t.Fatalf("unexpected envelope %+v", m)
	}
	if !strings.Contains(m.Text, "https://ipfs.io/ipfs/QmArt") {
		t.Fatalf("expected download link in text: %q", m.Text)
	}
	if !strings.Contains(m.HTML, `href="https://ipfs.io/ipfs/QmArt"`) || !strings.Contains(m.HTML, "Download SVG") {
		t.Fatalf("unexpected html %q", m.HTML)
	}
}

func TestRenderEmbedsArtifact(t *testing.T) {
	n := NewMailNotifier(&mockMailer{}, "shop@example.com", "secret")
	notice := testNotice()
	notice.Artifact = []byte("<svg></svg>")

	m, err := n.Render(notice)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// html/template escapes the '+' of the media type as &#43;
	if !strings.Contains(html.UnescapeString(m.HTML), `src="data:image/svg+xml;base64,PHN2Zz48L3N2Zz4="`) {
		t.Fatalf("expected embedded artifact, got %q", m.HTML)
	}
}

func TestSendPurchaseConfirmationNotConfigured(t *testing.T) {
	mailer := &mockMailer{}
	n := NewMailNotifier(mailer, "", "")

	err := n.SendPurchaseConfirmation(context.Background(), testNotice())
	if !errors.Is(err, domain.ErrNotifierNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("nothing must be sent")
	}
}

func TestSendPurchaseConfirmationNoRecipient(t *testing.T) {
	n := NewMailNotifier(&mockMailer{}, "shop@example.com", "secret")
	notice := testNotice()
	notice.Recipient = ""

	err := n.SendPurchaseConfirmation(context.Background(), notice)
	if !errors.Is(err, domain.ErrNoRecipient) {
		t.Fatalf("expected no recipient, got %v", err)
	}
}

func TestSendPurchaseConfirmationMailerError(t *testing.T) {
	n := NewMailNotifier(&mockMailer{err: errors.New("smtp down")}, "shop@example.com", "secret")

	if err := n.SendPurchaseConfirmation(context.Background(), testNotice()); err == nil {
		t.Fatalf("expected mailer error")
	}
}
