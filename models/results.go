package models

import (
	"bytes"
	"encoding/json"
)

// ResultSet is the accumulated analysis results for the process lifetime,
// keyed by URL and ordered by first analysis. Re-analyzing a URL replaces
// its record in place without changing its position. The zero value is not
// usable; construct with NewResultSet.
//
// ResultSet is a plain container with no internal locking — the analyzer
// owns the only mutable instance and guards it.
type ResultSet struct {
	order   []string
	records map[string]*AnalysisRecord
}

// NewResultSet returns an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{records: map[string]*AnalysisRecord{}}
}

// Add stores the record under its URL. First insertion appends to the
// iteration order; later insertions overwrite in place.
func (rs *ResultSet) Add(rec *AnalysisRecord) {
	if _, ok := rs.records[rec.URL]; !ok {
		rs.order = append(rs.order, rec.URL)
	}
	rs.records[rec.URL] = rec
}

// Get returns the record for url, or nil when the URL was never analyzed.
func (rs *ResultSet) Get(url string) *AnalysisRecord {
	return rs.records[url]
}

// Len returns the number of distinct analyzed URLs.
func (rs *ResultSet) Len() int {
	return len(rs.order)
}

// URLs returns the analyzed URLs in first-analysis order.
func (rs *ResultSet) URLs() []string {
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// Records returns the records in first-analysis order.
func (rs *ResultSet) Records() []*AnalysisRecord {
	out := make([]*AnalysisRecord, 0, len(rs.order))
	for _, u := range rs.order {
		out = append(out, rs.records[u])
	}
	return out
}

// Clone returns a copy of the container sharing the record pointers.
// Records are never mutated after insertion, so a clone taken under the
// owner's lock stays safe to read after the lock is released.
func (rs *ResultSet) Clone() *ResultSet {
	c := &ResultSet{
		order:   make([]string, len(rs.order)),
		records: make(map[string]*AnalysisRecord, len(rs.records)),
	}
	copy(c.order, rs.order)
	for k, v := range rs.records {
		c.records[k] = v
	}
	return c
}

// MarshalJSON encodes the set as a JSON object whose keys appear in
// first-analysis order, matching the layout of the results files.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, u := range rs.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(u)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(rs.records[u])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
