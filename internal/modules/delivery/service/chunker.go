package service

// ChunkMargin is kept free in every continuation segment
const ChunkMargin = 16

const headerSeparator = "\n\n"

// Chunk splits header and body into segments of at most limit runes. The
// header travels on the first segment only and the body portions of all
// segments concatenate back to body.
func Chunk(header, body string, limit int) []string {
	if limit <= 0 {
		limit = 1
	}

	if body == "" {
		return sliceRunes([]rune(header), limit)
	}

	prefix := []rune(header + headerSeparator)
	rest := []rune(body)
	if len(prefix)+len(rest) <= limit {
		return []string{header + headerSeparator + body}
	}

	var segments []string
	room := limit - len(prefix)
	if room > 0 {
		take := min(room, len(rest))
		segments = append(segments, string(prefix)+string(rest[:take]))
		rest = rest[take:]
	} else {
		// header alone does not fit, it gets segments of its own
		segments = append(segments, sliceRunes([]rune(header), limit)...)
	}

	size := max(limit-ChunkMargin, 1)
	return append(segments, sliceRunes(rest, size)...)
}

func sliceRunes(r []rune, size int) []string {
	var out []string
	for len(r) > 0 {
		take := min(size, len(r))
		out = append(out, string(r[:take]))
		r = r[take:]
	}
	return out
}
