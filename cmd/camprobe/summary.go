package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	xglog "github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/monitor"
	"github.com/ManuGH/camprobe/internal/status"
)

// printSummary writes the --once result table. Endpoint credentials are masked.
func printSummary(w io.Writer, report monitor.RoundReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tIP\tTARGET\tSTATUS\tMESSAGE")
	for _, d := range report.Devices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.IP, "onvif", d.Device.Code, d.Device.Message)
		for _, s := range d.Streams {
			fmt.Fprintf(tw, "\t\t%s\t%s\t%s\n", xglog.MaskURL(s.Endpoint), s.Status.Code, s.Status.Message)
		}
	}
	_ = tw.Flush()

	counts := report.Counts()
	fmt.Fprintf(w, "\nround %s: %d active, %d unknown, %d error in %s\n",
		report.ID,
		counts[status.CodeActive],
		counts[status.CodeUnknown],
		counts[status.CodeError],
		report.Finished.Sub(report.Started).Round(time.Millisecond),
	)
}
