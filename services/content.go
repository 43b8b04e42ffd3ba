package services

import (
	"bytes"
	"context"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// CategoryAll lists posts from every category
const CategoryAll = "All"

// BlogCategories are the filters offered on the blog page
var BlogCategories = []string{CategoryAll, "Health Education", "Healthcare Services", "Prevention", "Privacy & Rights"}

// raw HTML in posts is escaped since WithUnsafe is not set
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderedPost is a blog post with its markdown rendered to HTML
type RenderedPost struct {
	*models.BlogPost
	HTML template.HTML `json:"html"`
}

// NewPost is the admin form for a blog post
type NewPost struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Excerpt   string `json:"excerpt"`
	ImageURL  string `json:"image_url"`
	Category  string `json:"category"`
	Published bool   `json:"published"`
}

// ContactForm is the public contact form
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactNotifier forwards contact messages to the support inbox
type ContactNotifier interface {
	SendContactMessage(ctx context.Context, msg *models.ContactMessage) error
}

// ContentService serves the blog and the contact form
type ContentService struct {
	store    store.ContentStore
	notifier ContactNotifier
	logger   zerolog.Logger
}

// NewContentService creates a content service
func NewContentService(s store.ContentStore, notifier ContactNotifier, logger zerolog.Logger) *ContentService {
	return &ContentService{
		store:    s,
		notifier: notifier,
		logger:   logger.With().Str("component", "content").Logger(),
	}
}

// RenderMarkdown converts post content to HTML
func RenderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", errors.Wrap(err, "rendering markdown")
	}
	return template.HTML(buf.String()), nil
}

// ListPosts lists published posts newest first. An empty category or "All" lists every category.
func (s *ContentService) ListPosts(ctx context.Context, category string) ([]*models.BlogPost, error) {
	category = strings.TrimSpace(category)
	if category == CategoryAll {
		category = ""
	}

	posts, err := s.store.ListBlogPosts(ctx, category, true)
	if err != nil {
		return nil, errors.Wrap(err, "listing posts")
	}
	return posts, nil
}

// GetPost returns a published post with its rendered body
func (s *ContentService) GetPost(ctx context.Context, id string) (*RenderedPost, error) {
	post, err := s.store.GetBlogPost(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "finding post")
	}
	if !post.Published {
		return nil, errors.Wrapf(store.ErrNotFound, "post %s", id)
	}

	html, err := RenderMarkdown(post.Content)
	if err != nil {
		return nil, err
	}
	return &RenderedPost{BlogPost: post, HTML: html}, nil
}

// CreatePost stores a post written by an admin
func (s *ContentService) CreatePost(ctx context.Context, authorID string, form NewPost) (*models.BlogPost, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Category = strings.TrimSpace(form.Category)
	if form.Title == "" {
		return nil, validationErrorf("Title is required")
	}
	if strings.TrimSpace(form.Content) == "" {
		return nil, validationErrorf("Content is required")
	}
	if form.Category == "" || form.Category == CategoryAll {
		return nil, validationErrorf("Please choose a category")
	}

	post := &models.BlogPost{
		Title:     form.Title,
		Content:   form.Content,
		Excerpt:   models.StringPtr(strings.TrimSpace(form.Excerpt)),
		ImageURL:  models.StringPtr(strings.TrimSpace(form.ImageURL)),
		AuthorID:  models.StringPtr(authorID),
		Category:  form.Category,
		Published: form.Published,
	}
	if err := s.store.CreateBlogPost(ctx, post); err != nil {
		return nil, errors.Wrap(err, "creating post")
	}

	s.logger.Info().Str("post_id", post.ID).Str("category", post.Category).Msg("blog post created")
	return post, nil
}

// SeedPosts stores the starter posts when the blog is empty. It returns how many were added.
func (s *ContentService) SeedPosts(ctx context.Context) (int, error) {
	n, err := s.store.CountBlogPosts(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "counting posts")
	}
	if n > 0 {
		return 0, nil
	}

	posts := starterPosts()
	for _, post := range posts {
		if err := s.store.CreateBlogPost(ctx, post); err != nil {
			return 0, errors.Wrap(err, "seeding posts")
		}
	}
	s.logger.Info().Int("count", len(posts)).Msg("seeded blog posts")
	return len(posts), nil
}

// SubmitContact validates and stores a contact message, then forwards it to support.
// Forwarding failures are logged since the message is already saved.
func (s *ContentService) SubmitContact(ctx context.Context, form ContactForm) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Message: strings.TrimSpace(form.Message),
	}
	if msg.Name == "" {
		return nil, validationErrorf("Name is required")
	}
	if msg.Email == "" {
		return nil, validationErrorf("Email is required")
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return nil, validationErrorf("Please enter a valid email address")
	}
	if msg.Message == "" {
		return nil, validationErrorf("Message is required")
	}

	if err := s.store.CreateContactMessage(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "saving contact message")
	}

	if err := s.notifier.SendContactMessage(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("failed to forward contact message")
	}
	return msg, nil
}

// ListContactMessages lists contact messages newest first
func (s *ContentService) ListContactMessages(ctx context.Context, limit, offset int) ([]*models.ContactMessage, error) {
	msgs, err := s.store.ListContactMessages(ctx, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "listing contact messages")
	}
	return msgs, nil
}

func seedDate(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

func starterPosts() []*models.BlogPost {
	return []*models.BlogPost{
		{
			Title:     "Understanding STI Testing: What You Need to Know",
			Excerpt:   models.StringPtr("Learn about the importance of regular STI testing, different types of tests available, and how to prepare for your appointment."),
			Content:   homeHealthcareArticle,
			ImageURL:  models.StringPtr("https://images.pexels.com/photos/3683107/pexels-photo-3683107.jpeg?auto=compress&cs=tinysrgb&w=600"),
			Category:  "Health Education",
			Published: true,
			CreatedAt: seedDate("2025-01-15"),
		},
		{
			Title:     "The Benefits of Home Healthcare Services",
			Excerpt:   models.StringPtr("Discover how home healthcare services can provide convenient, professional, and confidential medical care tailored to your needs."),
			Content:   "Home healthcare services offer numerous advantages including privacy, convenience, and personalized care. Our team of licensed professionals brings medical expertise directly to your doorstep.",
			ImageURL:  models.StringPtr("https://images.pexels.com/photos/5215024/pexels-photo-5215024.jpeg?auto=compress&cs=tinysrgb&w=600"),
			Category:  "Healthcare Services",
			Published: true,
			CreatedAt: seedDate("2025-01-10"),
		},
		{
			Title:     "Maintaining Sexual Health: Prevention and Care",
			Excerpt:   models.StringPtr("Essential tips for maintaining sexual health, including prevention strategies, regular check-ups, and when to seek professional help."),
			Content:   "Sexual health is an important aspect of overall well-being. This guide covers prevention strategies, the importance of regular screenings, and available treatment options.",
			ImageURL:  models.StringPtr("https://images.pexels.com/photos/4386467/pexels-photo-4386467.jpeg?auto=compress&cs=tinysrgb&w=600"),
			Category:  "Prevention",
			Published: true,
			CreatedAt: seedDate("2025-01-05"),
		},
		{
			Title:     "Confidentiality in Healthcare: Your Rights and Privacy",
			Excerpt:   models.StringPtr("Understanding your rights to medical privacy and how healthcare providers ensure confidential treatment and secure handling of your information."),
			Content:   "Patient confidentiality is a cornerstone of healthcare. Learn about HIPAA regulations, your privacy rights, and how we protect your sensitive medical information.",
			ImageURL:  models.StringPtr("https://images.pexels.com/photos/6749771/pexels-photo-6749771.jpeg?auto=compress&cs=tinysrgb&w=600"),
			Category:  "Privacy & Rights",
			Published: true,
			CreatedAt: seedDate("2025-01-01"),
		},
	}
}

const homeHealthcareArticle = `Access to quality healthcare has never been more important. While hospitals and clinics play a vital role, more families are turning to home healthcare services as a preferred option for themselves and their loved ones.

## What is Home Healthcare?

Home healthcare refers to medical or non-medical services delivered in the comfort of a patient's home. It includes nursing, physical therapy, medication management, chronic illness monitoring and companionship.

## Key Benefits of Home Healthcare

1. **Comfort and familiarity.** Receiving care in a familiar environment reduces stress and promotes emotional well-being.
2. **Personalized care.** Caregivers can tailor their approach to the patient's specific needs.
3. **Cost-effectiveness.** Home healthcare is often more affordable than a long hospital stay.
4. **Independence and dignity.** Patients keep living in their own space.
5. **Family involvement.** Families stay informed and involved in the care process.
6. **Reduced risk of infections.** Being cared for at home lowers exposure for people with weakened immune systems.

## Who Can Benefit?

- Seniors needing assistance with daily activities
- Patients recovering from surgery or illness
- Individuals managing chronic conditions such as diabetes or heart disease
- People requiring physical or occupational therapy
- Families needing respite care for their loved ones

## Conclusion

By bringing professional care into the comfort of home, patients receive support that is personal, dignified, and effective.
`
