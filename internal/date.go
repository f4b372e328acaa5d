package internal

import "time"

const DateFormat = "2006-01-02"

// Date is a day at midnight. The zero Date means no date was given. It can
// be used as a flag.Value.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())}
}

func ParseDate(v string, loc *time.Location) (Date, error) {
	t, err := time.ParseInLocation(DateFormat, v, loc)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d *Date) Set(v string) error {
	parsed, err := ParseDate(v, time.Local)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}
