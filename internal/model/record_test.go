package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemoteFileName(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), want: "Current_2024-03-05.csv"},
		{date: time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), want: "Current_2024-12-31.csv"},
		{date: time.Date(2025, 1, 1, 8, 30, 0, 0, time.Local), want: "Current_2025-01-01.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoteFileName(tt.date))
		})
	}
}

func TestCredentialsString(t *testing.T) {
	creds := Credentials{Username: "admin", Password: "hunter2"}

	assert.Equal(t, "admin:****", creds.String())
	assert.NotContains(t, fmt.Sprintf("%v", creds), "hunter2")
}

func TestRecordAccessors(t *testing.T) {
	r := Record{"ID": "119", "CURRENT": "42", "NAME": "Hall"}
	assert.Equal(t, "119", r.ID())
	assert.Equal(t, "42", r.Current())

	empty := Record{}
	assert.Empty(t, empty.ID())
	assert.Empty(t, empty.Current())
}

func TestUpdateKeys(t *testing.T) {
	u := Update{"loc-3": "7", "loc-1": "42", "loc-2": "0"}
	assert.Equal(t, []string{"loc-1", "loc-2", "loc-3"}, u.Keys())
	assert.Empty(t, Update{}.Keys())
}
