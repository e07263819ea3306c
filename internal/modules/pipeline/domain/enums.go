//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Stage is the step an ingestion cycle reached
// ENUM(idle,fetching,selecting,deduping,normalizing,chunking,publishing,marker_update)
type Stage string

// Outcome is how an ingestion cycle ended
// ENUM(skipped,fetch_failed,nothing_new,duplicate,too_short,published,publish_failed)
type Outcome string
