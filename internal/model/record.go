// Package model defines the data passed between the sync stages.
package model

import (
	"sort"
	"time"
)

// Column names read from the daily export.
const (
	ColumnID      = "ID"
	ColumnCurrent = "CURRENT"
)

// RemoteFilePattern is the time layout of the daily export file name.
const RemoteFilePattern = "Current_2006-01-02.csv"

// RemoteFileName returns the name of the export expected on the file server for day t.
func RemoteFileName(t time.Time) string {
	return t.Format(RemoteFilePattern)
}

// Credentials is a username/password pair for one of the remote systems.
type Credentials struct {
	Username string
	Password string
}

// String hides the password so credentials can be logged safely.
func (c Credentials) String() string {
	return c.Username + ":****"
}

// Record is one parsed CSV row keyed by column header.
type Record map[string]string

// ID returns the external location identifier of the row.
func (r Record) ID() string {
	return r[ColumnID]
}

// Current returns the current visitor count of the row, unconverted.
func (r Record) Current() string {
	return r[ColumnCurrent]
}

// Update maps internal location keys to visitor counts for one form submission.
type Update map[string]string

// Keys returns the location keys in sorted order.
func (u Update) Keys() []string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VisitorCount is one row of the panel's current visitor table.
type VisitorCount struct {
	Location string
	Visitors string
}
