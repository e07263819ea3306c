//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package config

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// Destination selects the messaging platform announcements are published to
// ENUM(telegram,discord)
type Destination string

// MarkerBackend selects where the last published marker is persisted
// ENUM(file,sqlite)
type MarkerBackend string
