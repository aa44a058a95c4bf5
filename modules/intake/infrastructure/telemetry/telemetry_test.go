package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/eventbus"
)

func TestMetrics_CountEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	bus := eventbus.NewEventPublisher(logrus.New())
	m.Subscribe(bus)

	bus.Publish(&services.SectionOpenedEvent{UserID: "7", SectionID: "topTerms"})
	bus.Publish(&services.SectionOpenedEvent{UserID: "7", SectionID: "topTerms"})
	bus.Publish(&services.SaveConfirmedEvent{UserID: "7", SectionID: "topTerms", Elapsed: 600 * time.Millisecond, Complete: true})
	bus.Publish(&services.SaveUnresolvedEvent{UserID: "7", SectionID: "orgsContainer", Elapsed: 10 * time.Second})
	bus.Publish(&services.HaltedEvent{UserID: "7", SectionID: "orgsContainer", Reason: "section_error"})
	bus.Publish(&services.FinishedEvent{UserID: "7", Reloaded: true})

	require.InDelta(t, 2, testutil.ToFloat64(m.sectionsOpened.WithLabelValues("topTerms")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.savesUnsettled.WithLabelValues("orgsContainer")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.halts.WithLabelValues("section_error")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.finished.WithLabelValues("reload")), 0)
	require.Equal(t, 1, testutil.CollectAndCount(m.saveSeconds))
}

func TestAudit_LogsMilestones(t *testing.T) {
	logger, hook := test.NewNullLogger()
	bus := eventbus.NewEventPublisher(logger)
	NewAudit(logger).Subscribe(bus)

	bus.Publish(&services.HaltedEvent{UserID: "7", SectionID: "clinicalContainer", Reason: "poll_failed"})
	bus.Publish(&services.FinishedEvent{UserID: "7"})

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	require.Equal(t, "wizard halted", entries[0].Message)
	require.Equal(t, logrus.WarnLevel, entries[0].Level)
	require.Equal(t, "clinicalContainer", entries[0].Data["section"])
	require.Equal(t, "wizard finished", entries[1].Message)
	require.Equal(t, false, entries[1].Data["reloaded"])
}
