package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction      BookmarkType = "extinction"
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkResistanceSweep BookmarkType = "resistance_sweep"
	BookmarkSaturation      BookmarkType = "saturation"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type" csv:"type"`
	Tick        int          `json:"tick" csv:"tick"`
	Description string       `json:"description" csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkThresholds configures when bookmarks trigger.
type BookmarkThresholds struct {
	CrashDropPercent   float64 // fraction below recent peak
	CrashMinDrop       int     // absolute cells below recent peak
	SweepThreshold     float64 // normalized mean resistance
	SaturationFraction float64 // occupied share of habitable patches
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	thresholds     BookmarkThresholds
	resistanceMin  float64
	resistanceSpan float64

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPeak int  // peak population since the last crash
	extinct    bool // extinction already reported
	swept      bool // currently above the sweep threshold
	saturated  bool // currently above the saturation fraction
}

// NewBookmarkDetector creates a detector with the given history size.
// Resistance values are normalized over [resMin, resMax].
func NewBookmarkDetector(historySize int, th BookmarkThresholds, resMin, resMax float64) *BookmarkDetector {
	if historySize < 2 {
		historySize = 2
	}
	return &BookmarkDetector{
		thresholds:     th,
		resistanceMin:  resMin,
		resistanceSpan: resMax - resMin,
		history:        make([]WindowStats, historySize),
		historySize:    historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkPopulationCrash(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkResistanceSweep(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSaturation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Update history
	bd.addToHistory(stats)

	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Population > 0 || bd.extinct {
		return nil
	}
	bd.extinct = true

	// Name the dominant cause over the recent history
	var poisoned, age, division, other int
	for _, h := range append(bd.getHistory(), stats) {
		poisoned += h.DeathsPoisoned
		age += h.DeathsAgeLimit
		division += h.DeathsDivisionLimit
		other += h.DeathsOvercrowded + h.DeathsOther
	}
	return &Bookmark{
		Type: BookmarkExtinction,
		Tick: stats.WindowEndTick,
		Description: fmt.Sprintf("Population extinct (recent deaths: %d poisoned, %d age, %d division, %d other)",
			poisoned, age, division, other),
	}
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 || stats.Population == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if dropPercent > bd.thresholds.CrashDropPercent && stats.Population <= bd.recentPeak-bd.thresholds.CrashMinDrop {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkResistanceSweep(stats WindowStats) *Bookmark {
	if stats.Population == 0 || bd.resistanceSpan <= 0 {
		return nil
	}
	norm := (stats.ResistanceMean - bd.resistanceMin) / bd.resistanceSpan

	// Trigger on the upward crossing only
	above := norm >= bd.thresholds.SweepThreshold
	crossed := above && !bd.swept
	bd.swept = above
	if !crossed {
		return nil
	}

	history := bd.getHistory()
	start := stats.ResistanceMean
	if len(history) > 0 {
		start = history[0].ResistanceMean
	}
	return &Bookmark{
		Type:        BookmarkResistanceSweep,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Mean resistance %.2f reached %.0f%% of range (was %.2f)", stats.ResistanceMean, norm*100, start),
	}
}

func (bd *BookmarkDetector) checkSaturation(stats WindowStats) *Bookmark {
	above := stats.Occupancy >= bd.thresholds.SaturationFraction
	crossed := above && !bd.saturated
	bd.saturated = above
	if !crossed {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSaturation,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Grid %.0f%% occupied with %d cells", stats.Occupancy*100, stats.Population),
	}
}
