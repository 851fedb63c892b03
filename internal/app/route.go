package app

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/GriffinCanCode/buildwatch/internal/domain/router"
	"github.com/GriffinCanCode/buildwatch/internal/domain/supervisor"
	"github.com/GriffinCanCode/buildwatch/internal/shared/textenc"
)

const maxRouteLine = 1 << 20

// Route classifies lines read from in and renders them, without running
// anything. It is the filter form: `make | buildwatch route`. It returns the
// number of lines routed.
func Route(ctx context.Context, in io.Reader, sinks *Sinks) (int, error) {
	r := &Runner{sinks: sinks}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRouteLine)

	n := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		ev := router.Classify(textenc.Normalize(scanner.Bytes()))
		r.Dispatch(supervisor.Event{Event: ev})
		n++
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return n, err
	}

	if sinks.View != nil && sinks.Table != nil && sinks.Table.Len() > 0 {
		sinks.View.ShowWatch(sinks.Table)
	}
	return n, nil
}
