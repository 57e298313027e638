package transcoder

import (
	"time"

	"github.com/yanun0323/logs"

	"orefeed/internal/errors"
)

// transcodeOne consumes one input record.
func (t *Transcoder) transcodeOne() (bool, error) {
	now := t.cfg.Now()
	t.report(now)

	e, ok, err := t.inIter.Next()
	if err != nil {
		return false, errors.Wrap(err, "read input log")
	}
	if !ok {
		return false, nil
	}

	b, err := t.resolveInput(e.Stream)
	if err != nil {
		return false, err
	}
	if b == nil {
		t.cfg.Metrics.IncIgnored()
		return true, nil
	}
	t.cfg.Metrics.IncRead()

	replay := b.out.recovered > 0
	t.buf.Reset(replay)
	accepted, err := b.parser.Parse(e.Payload, e.Time, &b.watermark, t.buf)
	if err != nil {
		return false, errors.Wrapf(err, "parse %s", b.name)
	}
	if !accepted {
		t.cfg.Metrics.IncDuplicate()
		return true, nil
	}

	records := t.buf.Records()
	if replay {
		// the record this message produced is already in the output log
		if records > 0 {
			b.out.recovered--
			t.cfg.Metrics.IncReplayed()
		}
		return true, nil
	}
	if records == 0 {
		return true, nil
	}

	dst := t.out.Reserve(t.buf.Len())
	copy(dst, t.buf.Bytes())
	if err := t.out.Commit(now.UnixNano(), b.out.handle, dst); err != nil {
		return false, errors.Wrapf(err, "commit %s", b.out.name)
	}
	t.cfg.Metrics.ObserveCommit(records, time.Duration(now.UnixNano()-e.Time))
	return true, nil
}

func (t *Transcoder) report(now time.Time) {
	if t.cfg.StatsInterval <= 0 || now.Sub(t.lastStats) < t.cfg.StatsInterval {
		return
	}
	t.lastStats = now
	w := t.cfg.Metrics.Window()
	logs.Infof("read %d messages, wrote %d messages, %d duplicates", w.Read, w.Written, w.Duplicates)
}
