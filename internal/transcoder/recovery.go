package transcoder

import (
	"github.com/yanun0323/logs"

	"orefeed/internal/errors"
)

// recoverOne counts one committed output record towards its stream. Once the
// output log is exhausted the transcoder switches to the steady phase.
func (t *Transcoder) recoverOne() (bool, error) {
	e, ok, err := t.outIter.Next()
	if err != nil {
		return false, errors.Wrap(err, "read output log")
	}
	if !ok {
		t.finishRecovery()
		return true, nil
	}

	s, err := t.resolveRecovered(e.Stream)
	if err != nil {
		return false, err
	}
	if s == nil {
		return true, nil
	}
	if s.recovered == 0 {
		t.recoveredChannels++
		if t.recoveredChannels%recoveryChannelNotice == 0 {
			logs.Infof("recovering: %d channels so far", t.recoveredChannels)
		}
	}
	s.recovered++
	t.recoveredMessages++
	if t.recoveredMessages%recoveryMessageNotice == 0 {
		logs.Infof("recovering: %d messages so far", t.recoveredMessages)
	}
	return true, nil
}

func (t *Transcoder) finishRecovery() {
	logs.Infof("recovered %d messages on %d channels", t.recoveredMessages, t.recoveredChannels)
	t.cfg.Metrics.SetRecovered(t.recoveredMessages, t.recoveredChannels)
	t.recoveredMessages = 0
	t.recoveredChannels = 0
	t.phase = PhaseSteady
	t.lastStats = t.cfg.Now()
}
