package devchain

import (
	"sync"
	"time"
)

// Worker produces blocks on a fixed interval.
type Worker struct {
	chain     *Chain
	ticker    *time.Ticker
	shut      chan struct{}
	wg        sync.WaitGroup
	evHandler EventHandler
}

// Run starts a worker producing blocks for the chain every interval.
func Run(chain *Chain, interval time.Duration) *Worker {
	w := Worker{
		chain:     chain,
		ticker:    time.NewTicker(interval),
		shut:      make(chan struct{}),
		evHandler: chain.evHandler,
	}

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.blockOperations()
	}()

	<-hasStarted

	return &w
}

// Shutdown terminates the goroutine producing blocks.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.ticker.Stop()
	close(w.shut)
	w.wg.Wait()
}

// blockOperations handles producing a block on every tick.
func (w *Worker) blockOperations() {
	w.evHandler("worker: blockOperations: G started")
	defer w.evHandler("worker: blockOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if _, _, err := w.chain.ProduceBlock(); err != nil {
				w.evHandler("worker: blockOperations: ERROR: %s", err)
			}

		case <-w.shut:
			w.evHandler("worker: blockOperations: received shut signal")
			return
		}
	}
}
