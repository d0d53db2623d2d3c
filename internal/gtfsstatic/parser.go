package gtfsstatic

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/transitfusion/fusion_core/internal/models"
)

// ParseDir parses a static GTFS bundle laid out as a directory of CSV
// files. ParseZip does the same for a zipped bundle.
func ParseDir(dir string) (*Feed, error) {
	feed := &Feed{}

	if agencies, err := parseAgencies(filepath.Join(dir, "agency.txt")); err == nil {
		feed.Agencies = agencies
		log.Printf("parsed %d agencies", len(agencies))
	} else {
		log.Printf("warning: failed to parse agency.txt: %v", err)
	}

	stops, err := parseStops(filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, fmt.Errorf("parsing stops.txt (required): %w", err)
	}
	feed.Stops = stops
	log.Printf("parsed %d stops", len(stops))

	routes, err := parseRoutes(filepath.Join(dir, "routes.txt"))
	if err != nil {
		return nil, fmt.Errorf("parsing routes.txt (required): %w", err)
	}
	feed.Routes = routes
	log.Printf("parsed %d routes", len(routes))

	trips, err := parseTrips(filepath.Join(dir, "trips.txt"))
	if err != nil {
		return nil, fmt.Errorf("parsing trips.txt (required): %w", err)
	}
	feed.Trips = trips
	log.Printf("parsed %d trips", len(trips))

	stopTimes, err := parseStopTimes(filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, fmt.Errorf("parsing stop_times.txt (required): %w", err)
	}
	feed.StopTimes = stopTimes
	log.Printf("parsed %d stop_times", len(stopTimes))

	if transfers, err := parseTransfers(filepath.Join(dir, "transfers.txt")); err == nil {
		feed.Transfers = transfers
		log.Printf("parsed %d transfers", len(transfers))
	} else {
		log.Printf("warning: failed to parse transfers.txt: %v", err)
	}

	if calendars, err := parseCalendar(filepath.Join(dir, "calendar.txt")); err == nil {
		feed.Calendars = calendars
	}
	if calDates, err := parseCalendarDates(filepath.Join(dir, "calendar_dates.txt")); err == nil {
		feed.CalendarDates = calDates
	}

	return feed, nil
}

// ParseZip extracts a zipped GTFS bundle to a temp directory and parses it.
func ParseZip(zipPath string) (*Feed, error) {
	tempDir, err := os.MkdirTemp("", "gtfsstatic-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := extractZip(zipPath, tempDir); err != nil {
		return nil, fmt.Errorf("extracting zip: %w", err)
	}

	return ParseDir(tempDir)
}

func parseAgencies(path string) ([]models.Agency, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	colMap := makeColumnMap(header)

	var out []models.Agency
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed agency row: %v", err)
			continue
		}
		out = append(out, models.Agency{
			AgencyID: getField(record, colMap, "agency_id"),
			Name:     getField(record, colMap, "agency_name"),
			Timezone: getField(record, colMap, "agency_timezone"),
		})
	}
	return out, nil
}

func parseStops(path string) ([]models.Stop, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	colMap := makeColumnMap(header)

	var out []models.Stop
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed stop row: %v", err)
			continue
		}

		stopID := getField(record, colMap, "stop_id")
		if stopID == "" {
			continue
		}

		lat, _ := strconv.ParseFloat(getField(record, colMap, "stop_lat"), 64)
		lon, _ := strconv.ParseFloat(getField(record, colMap, "stop_lon"), 64)

		locType := models.LocationPlatform
		if lt := getField(record, colMap, "location_type"); lt != "" {
			if n, err := strconv.Atoi(lt); err == nil {
				locType = models.LocationType(n)
			}
		}

		out = append(out, models.Stop{
			StopID:        stopID,
			Name:          getField(record, colMap, "stop_name"),
			Lat:           lat,
			Lon:           lon,
			LocationType:  locType,
			ParentStation: getField(record, colMap, "parent_station"),
		})
	}
	return out, nil
}

func parseRoutes(path string) ([]models.Route, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	colMap := makeColumnMap(header)

	var out []models.Route
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed route row: %v", err)
			continue
		}

		routeID := getField(record, colMap, "route_id")
		if routeID == "" {
			continue
		}
		routeType, _ := strconv.Atoi(getField(record, colMap, "route_type"))

		out = append(out, models.Route{
			RouteID:   routeID,
			ShortName: getField(record, colMap, "route_short_name"),
			LongName:  getField(record, colMap, "route_long_name"),
			RouteType: routeType,
		})
	}
	return out, nil
}

func parseTrips(path string) ([]models.Trip, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	colMap := makeColumnMap(header)

	var out []models.Trip
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed trip row: %v", err)
			continue
		}

		tripID := getField(record, colMap, "trip_id")
		routeID := getField(record, colMap, "route_id")
		if tripID == "" || routeID == "" {
			continue
		}

		out = append(out, models.Trip{
			TripID:    tripID,
			RouteID:   routeID,
			ServiceID: getField(record, colMap, "service_id"),
			Headsign:  getField(record, colMap, "trip_headsign"),
		})
	}
	return out, nil
}

func parseStopTimes(path string) ([]models.StopTime, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	colMap := makeColumnMap(header)

	var out []models.StopTime
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed stop_time row: %v", err)
			continue
		}

		tripID := getField(record, colMap, "trip_id")
		stopID := getField(record, colMap, "stop_id")
		seqStr := getField(record, colMap, "stop_sequence")
		if tripID == "" || stopID == "" || seqStr == "" {
			continue
		}
		sequence, err := strconv.Atoi(seqStr)
		if err != nil {
			log.Printf("warning: invalid stop_sequence for trip %s: %v", tripID, err)
			continue
		}

		out = append(out, models.StopTime{
			TripID:        tripID,
			StopID:        stopID,
			StopSequence:  sequence,
			ArrivalTime:   getField(record, colMap, "arrival_time"),
			DepartureTime: getField(record, colMap, "departure_time"),
		})
	}
	return out, nil
}

func parseCalendar(path string) ([]models.Calendar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	colMap := makeColumnMap(header)

	boolField := func(record []string, name string) bool {
		return getField(record, colMap, name) == "1"
	}

	var out []models.Calendar
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		out = append(out, models.Calendar{
			ServiceID: getField(record, colMap, "service_id"),
			Monday:    boolField(record, "monday"),
			Tuesday:   boolField(record, "tuesday"),
			Wednesday: boolField(record, "wednesday"),
			Thursday:  boolField(record, "thursday"),
			Friday:    boolField(record, "friday"),
			Saturday:  boolField(record, "saturday"),
			Sunday:    boolField(record, "sunday"),
			StartDate: getField(record, colMap, "start_date"),
			EndDate:   getField(record, colMap, "end_date"),
		})
	}
	return out, nil
}

func parseCalendarDates(path string) ([]models.CalendarDate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	colMap := makeColumnMap(header)

	var out []models.CalendarDate
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		exceptionType, _ := strconv.Atoi(getField(record, colMap, "exception_type"))
		out = append(out, models.CalendarDate{
			ServiceID:     getField(record, colMap, "service_id"),
			Date:          getField(record, colMap, "date"),
			ExceptionType: exceptionType,
		})
	}
	return out, nil
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return err
		}

		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		outFile, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		rc.Close()
		outFile.Close()
		if err != nil {
			return err
		}
	}

	return nil
}
