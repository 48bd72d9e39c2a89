package model

import (
	"strings"
	"time"
)

// Id prefixes for catalogue records.
const (
	ProductIDPrefix = "prod-"
	PostIDPrefix    = "post-"
)

// Product represents a bakery product in the catalogue. Keys the store
// holds that are not declared here are kept in Extra.
type Product struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	ShortDescription string   `json:"short_description,omitempty"`
	Price            float64  `json:"price"`
	Category         string   `json:"category,omitempty"`
	Image            string   `json:"image,omitempty"`
	AdditionalImages []string `json:"additional_images,omitempty"`
	Featured         bool     `json:"featured,omitempty"`
	Visible          bool     `json:"visible"`
	PublishAt        string   `json:"publish_at,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at,omitempty"`

	Extra Extra `json:"-"`
}

// DocumentID returns the product id.
func (p Product) DocumentID() string { return p.ID }

type productFields Product

// MarshalJSON writes the declared fields followed by Extra.
func (p Product) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(productFields(p), p.Extra)
}

// UnmarshalJSON reads the declared fields and keeps the rest in Extra.
func (p *Product) UnmarshalJSON(data []byte) error {
	var f productFields
	extra, err := decodeWithExtra(data, &f)
	if err != nil {
		return err
	}
	*p = Product(f)
	p.Extra = extra
	return nil
}

// BlogPost represents a blog entry.
type BlogPost struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description,omitempty"`
	Content          string   `json:"content"`
	Author           string   `json:"author,omitempty"`
	CoverImage       string   `json:"cover_image,omitempty"`
	Images           []string `json:"images,omitempty"`
	Published        bool     `json:"published"`
	PublishAt        string   `json:"publish_at,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at,omitempty"`

	Extra Extra `json:"-"`
}

// DocumentID returns the post id.
func (p BlogPost) DocumentID() string { return p.ID }

type postFields BlogPost

func (p BlogPost) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(postFields(p), p.Extra)
}

func (p *BlogPost) UnmarshalJSON(data []byte) error {
	var f postFields
	extra, err := decodeWithExtra(data, &f)
	if err != nil {
		return err
	}
	*p = BlogPost(f)
	p.Extra = extra
	return nil
}

// PostPage is one page of published blog posts.
type PostPage struct {
	Posts []BlogPost `json:"posts"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
}

// publishLayouts are the accepted publish_at spellings without a zone offset.
var publishLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParsePublishAt parses a publish_at value. RFC 3339 values carry their own
// offset; naive values are read in loc.
func ParsePublishAt(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}

	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range publishLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Timestamp formats t the way records store creation and update times.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ProductFilter narrows the public product listing.
type ProductFilter struct {
	Category string
	Featured bool
}
