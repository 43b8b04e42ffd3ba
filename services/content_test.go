package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	n, err := env.content.SeedPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = env.content.SeedPosts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice adds nothing")

	posts, err := env.content.ListPosts(ctx, CategoryAll)
	require.NoError(t, err)
	require.Len(t, posts, 4)
	assert.Equal(t, "Understanding STI Testing: What You Need to Know", posts[0].Title)
	assert.Equal(t, "Confidentiality in Healthcare: Your Rights and Privacy", posts[3].Title)

	posts, err = env.content.ListPosts(ctx, "Prevention")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Prevention", posts[0].Category)
}

func TestCreateAndGetPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t, "admin@example.com")

	post, err := env.content.CreatePost(ctx, admin.ID, NewPost{
		Title:     "Flu season",
		Content:   "# Stay well\n\nWash your **hands**.\n\n<script>alert(1)</script>",
		Category:  "Prevention",
		Published: true,
	})
	require.NoError(t, err)
	require.NotNil(t, post.AuthorID)
	assert.Equal(t, admin.ID, *post.AuthorID)

	rendered, err := env.content.GetPost(ctx, post.ID)
	require.NoError(t, err)
	html := string(rendered.HTML)
	assert.Contains(t, html, "<h1>Stay well</h1>")
	assert.Contains(t, html, "<strong>hands</strong>")
	assert.NotContains(t, html, "<script>")
}

func TestDraftPostsAreHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft, err := env.content.CreatePost(ctx, "", NewPost{Title: "Draft", Content: "soon", Category: "Prevention"})
	require.NoError(t, err)
	assert.Nil(t, draft.AuthorID)

	posts, err := env.content.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = env.content.GetPost(ctx, draft.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.content.CreatePost(ctx, "", NewPost{Content: "x", Category: "Prevention"})
	assert.True(t, IsValidation(err))
	_, err = env.content.CreatePost(ctx, "", NewPost{Title: "x", Category: "Prevention"})
	assert.True(t, IsValidation(err))
	_, err = env.content.CreatePost(ctx, "", NewPost{Title: "x", Content: "x", Category: CategoryAll})
	assert.True(t, IsValidation(err))
}

func TestSubmitContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	msg, err := env.content.SubmitContact(ctx, ContactForm{
		Name:    " Ada ",
		Email:   "ada@example.com",
		Message: "Do you cover Abuja?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", msg.Name)

	stored, err := env.content.ListContactMessages(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, msg.ID, stored[0].ID)

	sent := env.mail.emails()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"support@example.com"}, sent[0].To)
	assert.Equal(t, "ada@example.com", sent[0].ReplyTo)
	assert.Equal(t, "Contact Form Submission from Diamond Masters Care", sent[0].Subject)
	assert.Equal(t, "Name: Ada\nEmail: ada@example.com\n\nMessage:\nDo you cover Abuja?", sent[0].Text)
}

func TestSubmitContactValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		form ContactForm
	}{
		{"no name", ContactForm{Email: "a@example.com", Message: "hi"}},
		{"no email", ContactForm{Name: "A", Message: "hi"}},
		{"bad email", ContactForm{Name: "A", Email: "nope", Message: "hi"}},
		{"no message", ContactForm{Name: "A", Email: "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.content.SubmitContact(ctx, tt.form)
			assert.True(t, IsValidation(err))
		})
	}

	msgs, err := env.content.ListContactMessages(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSubmitContactKeepsMessageWhenMailFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mail.err = errors.New("smtp down")

	_, err := env.content.SubmitContact(ctx, ContactForm{Name: "A", Email: "a@example.com", Message: "hi"})
	require.NoError(t, err)

	msgs, err := env.content.ListContactMessages(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestSendNurseDecision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.email.SendNurseDecision(ctx, "grace@example.com", "approved")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Email notification sent (simulated)", result.Message)
	assert.Equal(t, DecisionDetails{
		To:       "grace@example.com",
		Subject:  "Your Nurse Application Has Been Approved!",
		Decision: "approved",
	}, result.Details)

	result, err = env.email.SendNurseDecision(ctx, "grace@example.com", "rejected")
	require.NoError(t, err)
	assert.Equal(t, "Update on Your Nurse Application", result.Details.Subject)

	_, err = env.email.SendNurseDecision(ctx, "", "approved")
	require.Error(t, err)
	assert.Equal(t, "Missing email or decision", err.Error())

	_, err = env.email.SendNurseDecision(ctx, "grace@example.com", " ")
	assert.True(t, IsValidation(err))
}

func TestSendNurseDecisionOverSMTP(t *testing.T) {
	backend := &recordingBackend{}
	svc := NewEmailService(backend, EmailConfig{FromEmail: "noreply@example.com", CompanyName: "Diamond Masters Care"}, zerolog.Nop())

	result, err := svc.SendNurseDecision(context.Background(), "grace@example.com", "pending-review")
	require.NoError(t, err)
	assert.Equal(t, "Email notification sent", result.Message)
	assert.Equal(t, "Update on Your Nurse Application", result.Details.Subject)

	sent := backend.emails()
	require.Len(t, sent, 1)
	assert.Equal(t, "noreply@example.com", sent[0].From)
	assert.True(t, strings.Contains(sent[0].HTML, "style="), "styles are inlined")
}

func TestDecisionEmail(t *testing.T) {
	subject, message := DecisionEmail(DecisionApproved)
	assert.Equal(t, "Your Nurse Application Has Been Approved!", subject)
	assert.Contains(t, message, "Congratulations!")

	subject, message = DecisionEmail("rejected")
	assert.Equal(t, "Update on Your Nurse Application", subject)
	assert.Contains(t, message, "not approved at this time")
}

func TestCatalog(t *testing.T) {
	catalog := NewCatalog("NGN")

	plans := catalog.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, "ngn", plans[0].Currency)
	assert.True(t, plans[2].Featured)

	plan, ok := catalog.Plan(PlanSixMonth)
	require.True(t, ok)
	assert.Equal(t, int64(13500000), plan.Price)

	_, ok = catalog.Plan("6 months plan")
	assert.False(t, ok, "plan names are exact")

	assert.Len(t, catalog.Services(), 3)
	assert.Len(t, catalog.Features(), 3)
	assert.Len(t, catalog.Testimonials(), 3)

	nurses := catalog.FeaturedNurses()
	require.Len(t, nurses, 4)
	featured := 0
	for _, n := range nurses {
		if n.Featured {
			featured++
		}
	}
	assert.Equal(t, 1, featured)

	plans[0].Price = 1
	again, _ := catalog.Plan(PlanOneTime)
	assert.Equal(t, int64(2500000), again.Price, "Plans returns a copy")
}
