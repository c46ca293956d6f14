package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"html/template"
	"strings"

	"go.opentelemetry.io/otel"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/totegamma/craft-nft/internal/domain"
	"github.com/totegamma/craft-nft/internal/usecase"
)

var tracer = otel.Tracer("service")

func init() {
	lang := language.English

	message.SetString(lang, "mail.purchase.subject", "Your New NFT!")
	message.SetString(lang, "mail.purchase.text", "Congratulations! You've purchased an NFT.\n\nCollectible: %s\nDownload: %s\n")
	message.SetString(lang, "mail.purchase.heading", "Congratulations! You've purchased an NFT!")
	message.SetString(lang, "mail.purchase.alt", "Your NFT")
	message.SetString(lang, "mail.purchase.download", "Download SVG")
}

var purchaseHTML = template.Must(template.New("purchase").Parse(`<html>
<body>
	<p>{{.Heading}}</p>
	<img src="{{.ImageSrc}}" alt="{{.Alt}}">
	<p><a href="{{.Link}}">{{.Download}}</a></p>
</body>
</html>
`))

type purchaseView struct {
	Heading  string
	Alt      string
	Download string
	ImageSrc template.URL
	Link     string
}

var _ usecase.Notifier = (*MailNotifier)(nil)

// MailNotifier emails purchase confirmations. Without a sender address or
// password it reports domain.ErrNotifierNotConfigured.
type MailNotifier struct {
	mailer   usecase.Mailer
	from     string
	password string
	lang     language.Tag
}

func NewMailNotifier(mailer usecase.Mailer, from, password string) *MailNotifier {
	return &MailNotifier{
		mailer:   mailer,
		from:     from,
		password: password,
		lang:     language.English,
	}
}

func (n *MailNotifier) SendPurchaseConfirmation(ctx context.Context, notice domain.PurchaseNotice) error {
	ctx, span := tracer.Start(ctx, "Notifier.Service.SendPurchaseConfirmation")
	defer span.End()

	if n.mailer == nil || n.from == "" || n.password == "" {
		return domain.ErrNotifierNotConfigured
	}
	if strings.TrimSpace(notice.Recipient) == "" {
		return domain.ErrNoRecipient
	}

	m, err := n.Render(notice)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = n.mailer.Send(ctx, m)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Render builds the confirmation message for notice.
func (n *MailNotifier) Render(notice domain.PurchaseNotice) (domain.Mail, error) {
	p := message.NewPrinter(n.lang)

	link := notice.Collectible.ArtifactURI
	src := template.URL(link)
	if len(notice.Artifact) > 0 {
		src = template.URL("data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(notice.Artifact))
	}

	var html bytes.Buffer
	err := purchaseHTML.Execute(&html, purchaseView{
		Heading:  p.Sprintf("mail.purchase.heading"),
		Alt:      p.Sprintf("mail.purchase.alt"),
		Download: p.Sprintf("mail.purchase.download"),
		ImageSrc: src,
		Link:     link,
	})
	if err != nil {
		return domain.Mail{}, err
	}

	return domain.Mail{
		From:    n.from,
		To:      notice.Recipient,
		Subject: p.Sprintf("mail.purchase.subject"),
		Text:    p.Sprintf("mail.purchase.text", notice.Collectible.ID, link),
		HTML:    html.String(),
	}, nil
}
