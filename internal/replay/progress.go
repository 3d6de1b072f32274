package replay

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type ProgressBar struct {
	out       io.Writer
	label     string
	total     int
	current   int
	startTime time.Time
	mu        sync.Mutex
	width     int
}

func NewProgressBar(out io.Writer, label string, total int) *ProgressBar {
	pb := &ProgressBar{
		out:       out,
		label:     label,
		total:     total,
		startTime: time.Now(),
		width:     40,
	}

	pb.render()
	return pb
}

func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current++
	pb.render()
}

func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current = pb.total
	pb.render()
	fmt.Fprintln(pb.out)
}

func (pb *ProgressBar) render() {
	if pb.total == 0 {
		return
	}

	percent := float64(pb.current) / float64(pb.total)
	filled := int(percent * float64(pb.width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.width-filled)

	elapsed := time.Since(pb.startTime)
	var eta time.Duration
	if pb.current > 0 {
		perCase := elapsed / time.Duration(pb.current)
		eta = perCase * time.Duration(pb.total-pb.current)
	}

	fmt.Fprintf(pb.out, "\r%-22s [%s] %d/%d (%.1f%%) | %s | ETA %s  ",
		pb.label,
		bar,
		pb.current,
		pb.total,
		percent*100,
		formatDuration(elapsed),
		formatDuration(eta),
	)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}

	m := d / time.Minute
	s := (d - m*time.Minute) / time.Second

	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}

	return fmt.Sprintf("%ds", s)
}
