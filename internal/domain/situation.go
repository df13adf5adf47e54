package domain

import "time"

// Situation is the derived urgency label shown on ticket listings. It is
// recomputed from status and age on every read and never persisted.
type Situation string

const (
	SituationFinished  Situation = "FINISHED"
	SituationOnTime    Situation = "ON_TIME"
	SituationAttention Situation = "ATTENTION"
	SituationLate      Situation = "LATE"
)

// ClassifySituation maps a ticket's status and elapsed calendar days since
// creation to its situation. Rules, first match wins:
//
//	closed ticket           -> Finished
//	elapsed days <= 1       -> OnTime
//	elapsed days in {2, 3}  -> Attention
//	elapsed days >= 4       -> Late
//
// Elapsed days are a calendar-date difference, not wall-clock hours: a
// ticket opened at 23:50 is one day old ten minutes later. A createdAt in
// the future (clock skew) yields a negative difference and classifies as
// OnTime.
func ClassifySituation(status TicketStatus, createdAt, now time.Time) Situation {
	if status == TicketStatusClosed {
		return SituationFinished
	}
	days := calendarDaysBetween(createdAt, now)
	switch {
	case days <= 1:
		return SituationOnTime
	case days <= 3:
		return SituationAttention
	default:
		return SituationLate
	}
}

// Situation returns the ticket's situation at the given instant.
func (t *Ticket) Situation(now time.Time) Situation {
	return ClassifySituation(t.Status, t.CreatedAt, now)
}

func calendarDaysBetween(from, to time.Time) int {
	start := truncateToDay(from)
	end := truncateToDay(to)
	return int(end.Sub(start).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
