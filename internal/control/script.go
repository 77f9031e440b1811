package control

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/OCAP2/tracksync/internal/dispatcher"
	"github.com/OCAP2/tracksync/internal/queue"
	"github.com/OCAP2/tracksync/internal/util"
)

// ParseLine turns one script line into an event. Blank lines and lines
// starting with '#' yield ok == false.
//
//	:FLAG:PLACE: start 8.5412,47.3769,410
//	:HOVER: "8.54, 47.37"
func ParseLine(line string, now time.Time) (e dispatcher.Event, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return e, false, nil
	}
	fields, err := util.Fields(line)
	if err != nil {
		return e, false, err
	}
	cmd := fields[0]
	if !strings.HasPrefix(cmd, ":") || !strings.HasSuffix(cmd, ":") || len(cmd) < 3 {
		return e, false, fmt.Errorf("malformed command %q", cmd)
	}
	return dispatcher.Event{
		Command:   strings.ToUpper(cmd),
		Args:      fields[1:],
		Timestamp: now,
	}, true, nil
}

// Load parses a script and pushes its events onto q in order. The first
// malformed line aborts loading and reports its line number.
func Load(r io.Reader, q *queue.Queue[dispatcher.Event]) (int, error) {
	sc := bufio.NewScanner(r)
	var (
		events []dispatcher.Event
		lineNo int
	)
	for sc.Scan() {
		lineNo++
		e, ok, err := ParseLine(sc.Text(), time.Now())
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ok {
			events = append(events, e)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading script: %w", err)
	}
	q.Push(events...)
	return len(events), nil
}

// ResultFunc observes the outcome of one dispatched event.
type ResultFunc func(e dispatcher.Event, result any, err error)

// Drain dispatches every queued event in order. Command failures are
// reported to fn and do not stop the run. It returns the number of events
// whose handler failed.
func Drain(d *dispatcher.Dispatcher, q *queue.Queue[dispatcher.Event], fn ResultFunc) int {
	failed := 0
	for {
		e, ok := q.Pop()
		if !ok {
			return failed
		}
		result, err := d.Dispatch(e)
		if err != nil {
			failed++
		}
		if fn != nil {
			fn(e, result, err)
		}
	}
}
