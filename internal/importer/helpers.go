package importer

import (
	"time"

	"github.com/guilherme-santos/localcalendar/internal"
)

func relativeDate(d internal.Date) string {
	if !d.IsZero() {
		return d.String()
	}
	return "always"
}

func formatDateTime(d time.Time) string {
	return d.In(time.Local).Format("02 Jan 06 15:04")
}
