package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/thatsimonsguy/enose-collector/internal/runlog"
)

func main() {
	var dbPath, sample string
	var limit int
	flag.StringVar(&dbPath, "db", "data/runs.db", "Path to the run registry database")
	flag.StringVar(&sample, "sample", "", "Only show runs for this sample name")
	flag.IntVar(&limit, "limit", 20, "Maximum runs to show (0 for all)")
	flag.Parse()

	db, err := runlog.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run registry: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var runs []runlog.Run
	if sample != "" {
		runs, err = db.BySample(sample)
	} else {
		runs, err = db.List(limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSAMPLE\tSPECIMEN\tPROFILE\tCYCLES\tSTATUS\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.SampleName,
			r.SpecimenID,
			r.ProfileName,
			r.CapturedCycles,
			r.Status,
			r.OutputPath)
	}
	w.Flush()

	for _, r := range runs {
		if r.Status == runlog.StatusFailed && r.Error != "" {
			fmt.Printf("\nRun %d failed: %s\n", r.ID, r.Error)
		}
	}
}
