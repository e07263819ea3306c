package domain

import "time"

// Message is a journal entry for one published announcement
type Message struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Link     string    `json:"link"`
	Text     string    `json:"text"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
	Segments int       `json:"segments"`
}

// Content is the message as it appeared in the channel, link included
func (m *Message) Content() string {
	if m.Link == "" {
		return m.Text
	}
	return m.Text + "\n" + m.Link
}
