package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/feeds"
	deliveryDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/message/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/message/repository"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const feedSize = 50

// Service is the journal of published announcements. It doubles as the
// history reader for destinations that cannot read their own channel.
type Service struct {
	repo          repository.Repository
	publisherName string
}

// New creates a new message service
func New(repo repository.Repository, publisherName string) *Service {
	return &Service{
		repo:          repo,
		publisherName: publisherName,
	}
}

// Record stores a published announcement, stamping author and date when unset
func (s *Service) Record(message *domain.Message) error {
	if message.Author == "" {
		message.Author = s.publisherName
	}
	if message.Date.IsZero() {
		message.Date = time.Now().UTC()
	}
	return s.repo.SaveMessage(message)
}

// GetMessages retrieves up to limit journal entries, newest first
func (s *Service) GetMessages(limit int) ([]*domain.Message, error) {
	return s.repo.GetMessages(limit)
}

func (s *Service) Self(_ context.Context) (string, error) {
	return s.publisherName, nil
}

func (s *Service) Recent(_ context.Context, n int) ([]deliveryDomain.HistoryEntry, error) {
	messages, err := s.repo.GetMessages(n)
	if err != nil {
		return nil, oops.With("limit", n, "context", "failed to read journal").Wrap(err)
	}

	return lo.Map(messages, func(m *domain.Message, _ int) deliveryDomain.HistoryEntry {
		return deliveryDomain.HistoryEntry{Author: m.Author, Content: m.Content()}
	}), nil
}

// GenerateFeed builds an RSS feed of the latest published announcements
func (s *Service) GenerateFeed(baseURL string) (*feeds.Feed, error) {
	messages, err := s.repo.GetMessages(feedSize)
	if err != nil {
		return nil, oops.With("context", "failed to get messages").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s - published updates", s.publisherName),
		Link:        &feeds.Link{Href: strings.TrimRight(baseURL, "/") + "/rss"},
		Description: fmt.Sprintf("Update announcements published by %s", s.publisherName),
		Author:      &feeds.Author{Name: s.publisherName},
	}
	if len(messages) > 0 {
		feed.Updated = messages[0].Date
		feed.Created = messages[len(messages)-1].Date
	}

	feed.Items = lo.Map(messages, func(msg *domain.Message, _ int) *feeds.Item {
		return messageToFeedItem(msg)
	})

	return feed, nil
}

func messageToFeedItem(msg *domain.Message) *feeds.Item {
	title := msg.Title
	if title == "" {
		title = truncate(msg.Text, 100)
	}

	paragraphs := lo.Compact(strings.Split(msg.Text, "\n\n"))
	content := strings.Join(lo.Map(paragraphs, func(p string, _ int) string {
		return "<p>" + strings.ReplaceAll(html.EscapeString(p), "\n", "<br>") + "</p>"
	}), "")

	return &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: msg.Link},
		Description: truncate(msg.Text, 300),
		Content:     content,
		Author:      &feeds.Author{Name: msg.Author},
		Created:     msg.Date,
		Id:          msg.ID,
	}
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
