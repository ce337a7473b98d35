package catalog

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record with the requested ID does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned by Save when the ID is already taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// DefaultCollection is the name of the table holding registered items.
const DefaultCollection = "items"

// Metadata describes a registered item. It is stored and returned as is;
// the matching core never interprets it.
type Metadata struct {
	Description string    `json:"description"`
	Date        string    `json:"date"` // yyyy-MM-dd, when the item was lost or found
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	LocatedAt   time.Time `json:"located_at"` // when the location fix was taken
}

// Record is a catalog entry: the serialized descriptor set of one image plus
// its metadata. Descriptors holds the exact output of fingerprint.Serialize.
type Record struct {
	ID               string    `json:"id"`
	Descriptors      []float64 `json:"descriptors"`
	DescriptorLength int       `json:"descriptor_length"` // 0 for legacy records written without it
	Metadata         Metadata  `json:"metadata"`
	CreatedAt        time.Time `json:"created_at"`

	// DecodeErr is set by backends when the stored descriptor column could not
	// be read. Such records are still yielded so a scan can skip them.
	DecodeErr error `json:"-"`
}

// DescriptorCount returns how many descriptors the record holds, or -1 when
// the stored data does not divide evenly.
func (r *Record) DescriptorCount() int {
	if r.DescriptorLength <= 0 || len(r.Descriptors)%r.DescriptorLength != 0 {
		return -1
	}
	return len(r.Descriptors) / r.DescriptorLength
}
