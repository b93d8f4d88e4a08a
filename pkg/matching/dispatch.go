package matching

import (
	"context"
	"fmt"
	"sync"

	"github.com/Gobusters/ectologger"
)

// Dispatcher runs triggered pipelines asynchronously so callers never block
// on matching. Errors and panics land in the log, never in the trigger path.
type Dispatcher struct {
	logger ectologger.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a new pipeline dispatcher
func NewDispatcher(logger ectologger.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Go runs fn on its own goroutine with a recover+log error sink.
func (d *Dispatcher) Go(name string, fields map[string]any, fn func(ctx context.Context) error) {
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		log := d.logger.WithFields(fields).WithField("pipeline", name)

		defer func() {
			if r := recover(); r != nil {
				log.WithError(fmt.Errorf("panic: %v", r)).Error("Pipeline panicked")
			}
		}()

		if err := fn(context.Background()); err != nil {
			log.WithError(err).Error("Pipeline failed")
			return
		}

		log.Debug("Pipeline completed")
	}()
}

// Wait blocks until all in-flight pipelines finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
