package services

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks reconciliation activity. A nil *Metrics disables
// collection, which keeps service constructors easy to use in tests.
type Metrics struct {
	cyclesTotal        *prometheus.CounterVec
	tasksReset         prometheus.Counter
	remindersScheduled prometheus.Counter
	remindersCancelled prometheus.Counter
}

// NewMetrics registers reconciliation metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_cycles_total",
				Help: "Total reconciliation cycles by result",
			},
			[]string{"result"},
		),
		tasksReset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reconcile_tasks_reset_total",
			Help: "Daily tasks whose completion flag was reset",
		}),
		remindersScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_scheduled_total",
			Help: "Local reminders registered",
		}),
		remindersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_cancelled_total",
			Help: "Local reminders cancelled",
		}),
	}

	reg.MustRegister(m.cyclesTotal, m.tasksReset, m.remindersScheduled, m.remindersCancelled)
	return m
}

func (m *Metrics) observeCycle(result string) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) addTasksReset(n int) {
	if m == nil || n == 0 {
		return
	}
	m.tasksReset.Add(float64(n))
}

func (m *Metrics) addRemindersScheduled(n int) {
	if m == nil || n == 0 {
		return
	}
	m.remindersScheduled.Add(float64(n))
}

func (m *Metrics) addRemindersCancelled(n int) {
	if m == nil || n == 0 {
		return
	}
	m.remindersCancelled.Add(float64(n))
}
