package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// LenientNumber is a float that decodes leniently: numbers, numeric strings,
// null and garbage are all accepted, garbage becoming 0.
type LenientNumber float64

func (n *LenientNumber) UnmarshalJSON(data []byte) error {
	*n = 0
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
		s = strings.Replace(s, ",", ".", 1)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*n = LenientNumber(f)
	}
	return nil
}

func (n LenientNumber) Float() float64 {
	return float64(n)
}

// secondsCutoff is 1973 in milliseconds and year 5138 in seconds.
const secondsCutoff = 100_000_000_000

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes RFC3339, plain dates or unix epochs. Epochs below
// secondsCutoff are read as seconds, the rest as milliseconds. Anything
// else is the zero time, which orders as epoch 0.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		if epoch > -secondsCutoff && epoch < secondsCutoff {
			t.Time = time.Unix(epoch, 0).UTC()
		} else {
			t.Time = time.UnixMilli(epoch).UTC()
		}
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, unquoted); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Millis returns the unix milliseconds, 0 when unset.
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// ResultItem is one document listing as returned by search. Items are passed
// by value through filtering and ordering and never modified.
type ResultItem struct {
	Id           string        `json:"id"`
	Title        string        `json:"title"`
	Price        LenientNumber `json:"price"`
	Rating       LenientNumber `json:"rating"`
	UploadedAt   Timestamp     `json:"uploaded_at"`
	Tags         []string      `json:"tags,omitempty"`
	FacultyName  string        `json:"faculty_name,omitempty"`
	CourseName   string        `json:"course_name,omitempty"`
	Channel      string        `json:"canale,omitempty"`
	Language     string        `json:"language,omitempty"`
	AcademicYear string        `json:"academic_year,omitempty"`
	DocumentType string        `json:"document_type,omitempty"`
	PageCount    int           `json:"page_count,omitempty"`
	ListingKind  string        `json:"listing_kind,omitempty"`
	IsOwned      bool          `json:"is_owned,omitempty"`
}

func (i *ResultItem) GetId() string {
	return i.Id
}

func (i *ResultItem) GetTitle() string {
	return i.Title
}

func (i *ResultItem) GetPrice() float64 {
	return i.Price.Float()
}

func (i *ResultItem) GetRating() float64 {
	return i.Rating.Float()
}

// FieldValues returns the item's values for a multi-select facet.
func (i *ResultItem) FieldValues(key FacetKey) []string {
	single := func(s string) []string {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	switch key {
	case FacetFaculty:
		return single(i.FacultyName)
	case FacetCourse:
		return single(i.CourseName)
	case FacetChannel:
		return single(i.Channel)
	case FacetTag:
		return i.Tags
	case FacetDocumentType:
		return single(i.DocumentType)
	case FacetLanguage:
		return single(i.Language)
	case FacetAcademicYear:
		return single(i.AcademicYear)
	}
	return nil
}
