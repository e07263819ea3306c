//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// SourceKind represents the shape of an upstream news source
// ENUM(html,rss,json)
type SourceKind string
