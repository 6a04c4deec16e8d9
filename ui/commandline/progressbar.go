// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/schollz/progressbar/v3"

	"github.com/gomlx/npucascade/pkg/compiler"
	"github.com/gomlx/npucascade/pkg/parts"
)

// ProgressbarStyle to use. Defaults to the ASCII version.
// Consider "progressbar.ThemeUnicode" for a prettier version.
var ProgressbarStyle = progressbar.ThemeASCII

// maxUpdateFrequency is the time between updates to the commandline display of stats.
const maxUpdateFrequency = time.Millisecond * 200

var (
	normalStyle       = lipgloss.NewStyle().Padding(0, 1)
	rightAlignedStyle = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
	tableBorderColor  = "#705090"
)

type progressBarUpdate struct {
	amount            int
	numDone, numParts int
	part              string
}

// ProgressBar displays the progress of the combiner, one step per part.
type ProgressBar struct {
	out    io.Writer
	start  time.Time
	bar    *progressbar.ProgressBar
	last   int
	closed bool

	termenv          *termenv.Output
	statsStyle       lipgloss.Style
	statsTable       *lgtable.Table
	isFirstOutput    bool
	updates          chan progressBarUpdate
	asyncUpdatesDone sync.WaitGroup
}

// AttachProgressBar sets the Compiler.OnPartDone callback to display a progress bar on stdout,
// along with a small table with the last part done.
//
// ProgressBar.Done must be called once the compilation finishes.
func AttachProgressBar(c *compiler.Compiler) *ProgressBar {
	pBar := newProgressBar(os.Stdout, termenv.NewOutput(os.Stdout))
	previous := c.OnPartDone
	c.OnPartDone = func(part parts.Part, numDone, numParts int) {
		if previous != nil {
			previous(part, numDone, numParts)
		}
		pBar.onPartDone(part, numDone, numParts)
	}
	return pBar
}

func newProgressBar(out io.Writer, output *termenv.Output) *ProgressBar {
	pBar := &ProgressBar{
		out:           out,
		start:         time.Now(),
		termenv:       output,
		isFirstOutput: true,
		statsStyle:    lipgloss.NewStyle().PaddingLeft(8),
		updates:       make(chan progressBarUpdate, 100),
	}
	pBar.statsTable = lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(tableBorderColor))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return rightAlignedStyle
			}
			return normalStyle
		})
	pBar.asyncUpdatesDone.Add(1)
	go pBar.drawUpdates()
	return pBar
}

func (pBar *ProgressBar) onPartDone(part parts.Part, numDone, numParts int) {
	amount := numDone - pBar.last
	if amount <= 0 || pBar.closed {
		return
	}
	pBar.last = numDone
	pBar.updates <- progressBarUpdate{
		amount:   amount,
		numDone:  numDone,
		numParts: numParts,
		part:     fmt.Sprintf("#%d %s", part.ID(), part.Kind()),
	}
}

// drawUpdates asynchronously, so the combiner is never blocked by a slow terminal.
func (pBar *ProgressBar) drawUpdates() {
	defer pBar.asyncUpdatesDone.Done()
	for update := range pBar.updates {
		amount := update.amount
	exhaust:
		for {
			select {
			case newUpdate, ok := <-pBar.updates:
				if !ok {
					break exhaust
				}
				amount += newUpdate.amount
				update = newUpdate
			default:
				break exhaust
			}
		}

		if pBar.bar == nil {
			pBar.bar = progressbar.NewOptions(update.numParts,
				progressbar.OptionSetDescription("      [bold]"),
				progressbar.OptionUseANSICodes(true),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("parts"),
				progressbar.OptionSetTheme(ProgressbarStyle),
				progressbar.OptionSetWriter(pBar.out),
			)
		}

		pBar.statsTable.Data(lgtable.NewStringData())
		pBar.statsTable.Row("Parts", fmt.Sprintf("%s of %s",
			humanize.Comma(int64(update.numDone)), humanize.Comma(int64(update.numParts))))
		pBar.statsTable.Row("Last part", update.part)
		pBar.statsTable.Row("Elapsed", FormatDuration(time.Since(pBar.start)))

		pBar.termenv.HideCursor()
		if !pBar.isFirstOutput {
			// Table rows plus its borders, and the progress bar line.
			pBar.termenv.CursorPrevLine(3 + 2 + 1)
		}
		pBar.isFirstOutput = false
		_, _ = fmt.Fprintln(pBar.out, pBar.statsStyle.Render(pBar.statsTable.String()))
		_ = pBar.bar.Add(amount)
		_, _ = fmt.Fprintln(pBar.out)
		pBar.termenv.ShowCursor()
		time.Sleep(maxUpdateFrequency)
	}
}

// Done waits for the pending updates to be displayed. It can be called more than once.
func (pBar *ProgressBar) Done() {
	if pBar.closed {
		return
	}
	pBar.closed = true
	close(pBar.updates)
	pBar.asyncUpdatesDone.Wait()
	pBar.termenv.ShowCursor()
}
