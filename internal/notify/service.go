package notify

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"

	"minirsn/internal/models"
	"minirsn/internal/observability"
	"minirsn/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var newPostTemplate = template.Must(
	template.ParseFS(templatesFS, "templates/new_post.html.tmpl"))

var (
	emailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minirsn_notification_emails_sent_total",
		Help: "Number of new-post notification emails delivered.",
	})
	emailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minirsn_notification_email_failures_total",
		Help: "Number of new-post notification emails that failed to send.",
	})
)

// Service fans a new-post notification out to every other user by email.
type Service struct {
	userRepo repository.UserRepository
	mailer   Mailer
	from     string
	subject  string
}

// NewService wires the notification fan-out.
func NewService(userRepo repository.UserRepository, mailer Mailer, from, subject string) *Service {
	return &Service{
		userRepo: userRepo,
		mailer:   mailer,
		from:     from,
		subject:  subject,
	}
}

// NotifyNewPost emails every user other than the post's author. The body is
// rendered once and each recipient gets a discrete message. A transport
// failure aborts the remaining sends and is returned to the caller, who
// decides whether to surface it; the post itself is already committed.
func (s *Service) NotifyNewPost(ctx context.Context, post *models.Post) error {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return err
	}

	var recipients []string
	for _, user := range users {
		if user.Email != "" && user.ID != post.UserID {
			recipients = append(recipients, user.Email)
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	var body bytes.Buffer
	if err := newPostTemplate.Execute(&body, map[string]interface{}{
		"Post":   post,
		"Author": post.User,
	}); err != nil {
		return models.NewInternalError(err)
	}
	html := body.String()

	for _, recipient := range recipients {
		msg := Message{
			From:    s.from,
			To:      recipient,
			Subject: s.subject,
			HTML:    html,
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			emailFailures.Inc()
			return models.NewMailError(err)
		}
		emailsSent.Inc()
	}

	observability.RequestLogger(ctx).Info("new post notifications sent",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.Int("recipients", len(recipients)),
	)
	return nil
}
