package discord

import (
	"fmt"
	"time"
)

// Discord renders <t:unix:style> markers in the reader's own timezone, which
// beats formatting a fixed server timezone into the message.

// Timestamp renders t as an absolute Discord timestamp (date + time).
func Timestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}

// RelativeTimestamp renders t as a relative Discord timestamp ("in 5 minutes").
func RelativeTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}
