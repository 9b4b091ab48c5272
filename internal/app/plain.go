package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/five82/iglive/internal/live"
)

const plainTimeFormat = "15:04:05"

// formatEvent renders one event as a plain output line. Events with nothing
// worth printing return "".
func formatEvent(e live.Event) string {
	var body string
	switch e.Kind {
	case live.EventConnected:
		if e.Session == nil {
			return ""
		}
		s := e.Session
		body = fmt.Sprintf("connected to @%s live=%s viewers=%s",
			s.Owner.Username, s.LiveID, humanize.Comma(s.ViewerCount))
	case live.EventDisconnected:
		if e.Err != nil {
			body = "disconnected: " + e.Err.Error()
		} else {
			body = "disconnected"
		}
	case live.EventError:
		body = "error: " + errString(e.Err)
	case live.EventFetchHeartbeat:
		if e.Heartbeat == nil {
			return ""
		}
		body = fmt.Sprintf("viewers=%s status=%s",
			humanize.Comma(int64(e.Heartbeat.ViewerCount)), e.Heartbeat.BroadcastStatus)
	case live.EventUserComment:
		if e.Comment == nil {
			return ""
		}
		body = fmt.Sprintf("@%s: %s", e.Comment.User.Username, oneLine(e.Comment.Text))
	case live.EventJoin:
		if e.SystemComment == nil {
			return ""
		}
		body = "+ " + oneLine(e.SystemComment.Text)
	case live.EventSystemComment:
		// Joins are printed from EventJoin.
		if e.SystemComment == nil || e.SystemComment.IsJoin() {
			return ""
		}
		body = "* " + oneLine(e.SystemComment.Text)
	default:
		return ""
	}

	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	return at.Format(plainTimeFormat) + " " + body
}

func errString(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
