// Command resetdates bulk-adjusts assignment due and cutoff dates to a
// target time of day. It searches assignments by course name, shows what
// would change, and applies the changes only when -run is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/campusops/submission-restrict-api/internal/repository"
	"github.com/campusops/submission-restrict-api/internal/service"
	"github.com/campusops/submission-restrict-api/internal/timecalc"
	"github.com/campusops/submission-restrict-api/pkg/config"
	"github.com/campusops/submission-restrict-api/pkg/database"
)

func main() {
	search := flag.String("search", "", "course name fragment to match (required)")
	hour := flag.Int("hour", 0, "target hour, 0-23")
	minute := flag.Int("minute", 0, "target minute, 0-55 in steps of 5")
	run := flag.Bool("run", false, "apply the changes instead of printing them")
	flag.Parse()

	if *search == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *hour < 0 || *hour > 23 {
		log.Fatalf("hour must be between 0 and 23, got %d", *hour)
	}
	if *minute < 0 || *minute > 55 || *minute%5 != 0 {
		log.Fatalf("minute must be between 0 and 55 in steps of 5, got %d", *minute)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	location := time.Local
	if cfg.Restrictions.Timezone != "" {
		location, err = time.LoadLocation(cfg.Restrictions.Timezone)
		if err != nil {
			log.Fatalf("invalid restrictions timezone %q: %v", cfg.Restrictions.Timezone, err)
		}
	}

	assignments := repository.NewAssignmentRepository(db)
	calendar := service.NewCalendarService(repository.NewCalendarRepository(db), assignments, nil)
	target := timecalc.New(*hour, *minute)

	ctx := context.Background()
	rows, err := assignments.SearchForReset(ctx, *search)
	if err != nil {
		log.Fatalf("failed to search assignments: %v", err)
	}
	if len(rows) == 0 {
		fmt.Printf("no assignments matched %q\n", *search)
		return
	}

	format := func(ts int64) string {
		if ts <= 0 {
			return "-"
		}
		return time.Unix(ts, 0).In(location).Format("2006-01-02 15:04")
	}

	changed := 0
	for _, row := range rows {
		dueDate := row.DueDate
		cutoffDate := row.CutoffDate
		needUpdate := false

		if dueDate > 0 {
			if newDate, ok := timecalc.Recalculate(dueDate, target, nil, location); ok {
				dueDate = newDate
				needUpdate = true
			}
		}
		if cutoffDate > 0 {
			if newDate, ok := timecalc.Recalculate(cutoffDate, target, nil, location); ok {
				cutoffDate = newDate
				needUpdate = true
			}
		}

		if !needUpdate {
			fmt.Printf("unchanged  %-40s %-30s due %s cutoff %s\n", row.Name, row.CourseName, format(row.DueDate), format(row.CutoffDate))
			continue
		}

		changed++
		fmt.Printf("change     %-40s %-30s due %s -> %s cutoff %s -> %s\n",
			row.Name, row.CourseName, format(row.DueDate), format(dueDate), format(row.CutoffDate), format(cutoffDate))

		if !*run {
			continue
		}
		if err := assignments.UpdateDates(ctx, row.ID, dueDate, cutoffDate); err != nil {
			log.Fatalf("failed to update assignment %d: %v", row.ID, err)
		}
		if err := calendar.Refresh(ctx, "assign", row.ID); err != nil {
			log.Printf("warning: calendar refresh failed for assignment %d: %v", row.ID, err)
		}
	}

	if *run {
		fmt.Printf("updated %d of %d assignments\n", changed, len(rows))
	} else {
		fmt.Printf("%d of %d assignments would change; re-run with -run to apply\n", changed, len(rows))
	}
}
