package model

import (
	"time"
)

const (
	// DefaultPetType is assigned when the uploader leaves the type blank.
	DefaultPetType = "Other"

	PetNameMaxLen = 40
	PetTypeMaxLen = 24
	CaptionMaxLen = 240
)

// Post is one feed entry: a captioned pet photo.
// (CreatedAtMicros, ID) is the composite sort key for the feed; ties on the
// timestamp are broken by ID so pagination is deterministic.
type Post struct {
	ID              string `db:"id"`
	PetName         string `db:"pet_name"`
	PetType         string `db:"pet_type"`
	Caption         string `db:"caption"`
	ImagePath       string `db:"image_path"` // storage key, resolved to a URL by the blob layer
	CreatedAtMicros int64  `db:"created_at"` // unix microseconds, UTC
}

func (p *Post) CreatedAt() time.Time {
	return time.UnixMicro(p.CreatedAtMicros).UTC()
}

// Before reports whether p sorts strictly before other in ascending
// (oldest-first) feed order.
func (p *Post) Before(other *Post) bool {
	if p.CreatedAtMicros != other.CreatedAtMicros {
		return p.CreatedAtMicros < other.CreatedAtMicros
	}
	return p.ID < other.ID
}
