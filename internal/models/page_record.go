package models

// DefaultTrimOffset is the number of leading characters dropped from the
// joined paragraph text of a page.
const DefaultTrimOffset = 59

// DefaultTableName is the DynamoDB table page records are written to
const DefaultTableName = "spider"

// DefaultRegion is the AWS region the table lives in
const DefaultRegion = "eu-west-1"

// PageRecord is the flat record extracted from one fetched page
type PageRecord struct {
	Title    string `json:"Title"`
	Heading1 string `json:"Heading1"`
	Heading2 string `json:"Heading2"`
	URLText  string `json:"URLText"`
}

// StoredPage is the persisted form of a PageRecord. Title is the table's
// hash key.
type StoredPage struct {
	Title    string `dynamodbav:"Title"`
	Heading1 string `dynamodbav:"Heading1"`
	Heading2 string `dynamodbav:"Heading2"`
	URLText  string `dynamodbav:"URLText"`
}

// NewStoredPage builds the item written for a record. The stored Title is the
// first heading unless usePageTitle is set, in which case the document title
// is written instead.
func NewStoredPage(rec PageRecord, usePageTitle bool) StoredPage {
	title := rec.Heading1
	if usePageTitle {
		title = rec.Title
	}

	return StoredPage{
		Title:    title,
		Heading1: rec.Heading1,
		Heading2: rec.Heading2,
		URLText:  rec.URLText,
	}
}

// PageResult is one element of the emitted sequence. Record is nil when the
// page could not be extracted; Err is set for any per-page failure, including
// a failed store write after which Record is still populated.
type PageResult struct {
	URL    string      `json:"url"`
	Record *PageRecord `json:"record,omitempty"`
	Err    error       `json:"-"`
}

// Stored reports whether the record was extracted and written without error
func (r PageResult) Stored() bool {
	return r.Record != nil && r.Err == nil
}

// DefaultStartURLs returns the pages crawled when no start_urls are given
func DefaultStartURLs() []string {
	return []string{
		"https://en.wikipedia.org/wiki/Poland",
		"https://en.wikipedia.org/wiki/China",
		"https://en.wikipedia.org/wiki/India",
	}
}
