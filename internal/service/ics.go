package service

import (
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"

	"residencehub/internal/db"
)

const icsProductID = "-//ResidenceHub//Reservation//EN"

// BuildICS renders a single-event calendar for a reservation.
func BuildICS(res db.Reservation, space db.Space, buildingName string, now time.Time) []byte {
	status := ics.ObjectStatusTentative
	switch res.Status {
	case db.StatusConfirmed, db.StatusCompleted:
		status = ics.ObjectStatusConfirmed
	case db.StatusCancelled, db.StatusRejected:
		status = ics.ObjectStatusCancelled
	}

	location := space.Name
	if buildingName != "" {
		location = space.Name + ", " + buildingName
	}

	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetMethod(ics.MethodPublish)

	event := cal.AddEvent(res.ReferenceCode + "@residencehub")
	event.SetDtStampTime(now)
	event.SetStartAt(res.StartTime)
	event.SetEndAt(res.EndTime)
	event.SetSummary("Reservation: " + space.Name)
	event.SetDescription(space.Name + "\nRef: " + res.ReferenceCode)
	event.SetLocation(location)
	event.SetStatus(status)
	// Calendar clients replace an event only when its sequence grows.
	event.SetProperty(ics.ComponentPropertySequence, strconv.Itoa(res.Version))

	return []byte(cal.Serialize())
}
