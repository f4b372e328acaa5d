package sqlite

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		observed    string
		descendants bool
		changed     string
		want        bool
	}{
		{"content://com.android.calendar/calendars", false, "content://com.android.calendar/calendars", true},
		{"content://com.android.calendar/calendars", false, "content://com.android.calendar/calendars/1", false},
		{"content://com.android.calendar/calendars", true, "content://com.android.calendar/calendars/1", true},
		{"content://com.android.calendar/calendars/1", false, "content://com.android.calendar/calendars", true},
		{"content://com.android.calendar/calendars", true, "content://com.android.calendar/calendarsx", false},
		{"content://com.android.calendar/calendars", true, "content://com.android.calendar/events/1", false},
		{"content://com.android.calendar/calendars", true, "content://other/calendars", false},
	}
	for _, tt := range tests {
		r := registration{uri: parse(t, tt.observed), descendants: tt.descendants}
		assert.Equal(t, tt.want, matches(r, parse(t, tt.changed)), "%s (descendants=%v) <- %s", tt.observed, tt.descendants, tt.changed)
	}
}

type nop struct{ id int }

func (*nop) OnChange(*url.URL) {}

func TestUnregisterRemovesEveryRegistration(t *testing.T) {
	o := &observers{}
	a, b := &nop{1}, &nop{2}
	uri := parse(t, "content://com.android.calendar/calendars")

	o.register(uri, true, a)
	o.register(uri, false, a)
	o.register(uri, true, b)
	assert.Equal(t, 3, o.count())

	o.unregister(a)
	assert.Equal(t, 1, o.count())
	assert.Equal(t, b, o.regs[0].observer)
}

func parse(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
