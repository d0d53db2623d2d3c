// Package gtfsstatic parses the GTFS static feed (a directory or zip of
// CSV files) into the domain types in internal/models.
package gtfsstatic

import "github.com/transitfusion/fusion_core/internal/models"

// Feed holds everything parsed out of a static GTFS bundle. Only Stops,
// Trips, StopTimes and Transfers are read by the graph compiler. Of the
// rest, PostgresStore persists Agencies and Routes; Calendars and
// CalendarDates are parsed but not persisted by either store.
type Feed struct {
	Agencies      []models.Agency
	Stops         []models.Stop
	Routes        []models.Route
	Trips         []models.Trip
	StopTimes     []models.StopTime
	Transfers     []models.Transfer
	Calendars     []models.Calendar
	CalendarDates []models.CalendarDate
}
