package telemetry

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pthm-cable/petri/components"
)

// PrintReport writes a human-readable summary of r to w with grouped digits.
func PrintReport(w io.Writer, r Report) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	p.Fprintf(tw, "Run summary\n")
	p.Fprintf(tw, "  seed\t%d\n", r.Seed)
	p.Fprintf(tw, "  stop reason\t%s\n", r.StopReason)
	p.Fprintf(tw, "  ticks\t%d\n", r.Ticks)
	p.Fprintf(tw, "  cells created\t%d\n", r.TotalCreated)
	p.Fprintf(tw, "  final population\t%d\n", r.FinalPopulation)
	p.Fprintf(tw, "  peak population\t%d (tick %d)\n", r.PeakPopulation, r.PeakTick)
	p.Fprintf(tw, "  generations\t%d (max generation %d)\n", r.Generations, r.MaxGeneration)
	p.Fprintf(tw, "  largest generation\t%s (%d cells)\n", joinInts(r.LargestGenerations), r.LargestGenerationSize)

	p.Fprintf(tw, "\nDeaths\t%d\n", r.TotalDeaths)
	for _, c := range components.AllCauses() {
		n := r.DeathsByCause[c]
		if n == 0 {
			p.Fprintf(tw, "  %s\t%d\n", c, n)
			continue
		}
		p.Fprintf(tw, "  %s\t%d\tmean lifespan %.1f\n", c, n, r.MeanLifespanByCause[c])
	}

	if len(r.PerGeneration) > 0 {
		p.Fprintf(tw, "\nGeneration\tcells\tdeaths\tresistance mean\tstd\tmin\tmax\n")
		for _, g := range r.PerGeneration {
			p.Fprintf(tw, "  %d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
				g.Generation, g.Count, g.Deaths, g.ResistanceMean, g.ResistanceStd, g.ResistanceMin, g.ResistanceMax)
		}
	}

	if len(r.HallOfFame) > 0 {
		p.Fprintf(tw, "\nHall of fame\tgeneration\tchildren\tlifespan\tresistance\tcause\n")
		for _, e := range r.HallOfFame {
			p.Fprintf(tw, "  #%d\t%d\t%d\t%d\t%.2f\t%s\n",
				e.CellID, e.Generation, e.Children, e.Lifespan, e.Resistance, e.Cause)
		}
	}

	return tw.Flush()
}

func joinInts(vals []int) string {
	if len(vals) == 0 {
		return "none"
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
