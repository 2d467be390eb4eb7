package oraclelink

import (
	"context"

	"github.com/oraclelink/oraclelink/core"
	"github.com/oraclelink/oraclelink/journal"
)

// dispatcher fans engine events out to every configured notifier and records
// closed trades in the journal
type dispatcher struct {
	journal   journal.Journal
	log       core.Logger
	notifiers []core.Notifier
}

func newDispatcher(j journal.Journal, log core.Logger, notifiers ...core.Notifier) *dispatcher {
	d := &dispatcher{journal: j, log: log}
	for _, n := range notifiers {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

func (d *dispatcher) Notify(text string) {
	for _, n := range d.notifiers {
		n.Notify(text)
	}
}

func (d *dispatcher) OnTrade(record core.TradeRecord) {
	if d.journal != nil {
		if err := d.journal.Save(context.Background(), record); err != nil {
			d.log.WithError(err).Errorf("journaling trade %s", record.ID)
		}
	}
	for _, n := range d.notifiers {
		n.OnTrade(record)
	}
}

func (d *dispatcher) OnError(err error) {
	for _, n := range d.notifiers {
		n.OnError(err)
	}
}
