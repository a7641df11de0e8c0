package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/api/metrics"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 15 * time.Second
	drainTimeout   = 10 * time.Second
)

// ErrQueueFull is returned by Send when the recipient's worker is backed up.
var ErrQueueFull = errors.New("mail queue full")

// Dispatcher takes mail off the request path. Messages are sharded over a
// fixed set of workers by recipient, so mail to one address goes out in the
// order it was queued. It implements ports.Mailer.
type Dispatcher struct {
	// From is stamped on messages queued without a sender. Set it before Start.
	From string
	// DrainTimeout bounds how long workers keep delivering buffered mail
	// after shutdown starts. Zero means drainTimeout.
	DrainTimeout time.Duration

	workers   []chan ports.MailMessage
	transport ports.Mailer
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers that
// hand messages to transport. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, transport ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.MailMessage, numWorkers),
		transport: transport,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.MailMessage, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// delivers what is still buffered, up to DrainTimeout, and then stops; Wait
// blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Send queues msg without blocking. The request context is not carried
// over: delivery outlives the request that asked for it.
func (d *Dispatcher) Send(_ context.Context, msg ports.MailMessage) error {
	if msg.From == "" {
		msg.From = d.From
	}
	idx := d.shardIndex(msg.To)
	select {
	case d.workers[idx] <- msg:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		metrics.MailErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().Str("to", msg.To).Int("worker_id", idx).Msg("mail queue full, message dropped")
		return ErrQueueFull
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.MailMessage) {
	defer d.wg.Done()
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		// Shutdown takes priority over picking up more work.
		select {
		case <-ctx.Done():
			d.drain(id, ch, depth)
			return
		default:
		}

		select {
		case <-ctx.Done():
			d.drain(id, ch, depth)
			return
		case msg := <-ch:
			depth.Dec()
			d.deliver(context.Background(), id, msg)
		}
	}
}

// drain delivers buffered messages until the channel is empty or the drain
// deadline passes. Whatever is left is dropped, counted and logged.
func (d *Dispatcher) drain(id int, ch <-chan ports.MailMessage, depth prometheus.Gauge) {
	timeout := d.DrainTimeout
	if timeout <= 0 {
		timeout = drainTimeout
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	delivered := 0
deliver:
	for drainCtx.Err() == nil {
		select {
		case msg := <-ch:
			depth.Dec()
			d.deliver(drainCtx, id, msg)
			delivered++
		default:
			break deliver
		}
	}

	dropped := 0
discard:
	for {
		select {
		case <-ch:
			depth.Dec()
			dropped++
		default:
			break discard
		}
	}

	if dropped > 0 {
		metrics.MailErrorsTotal.WithLabelValues("shutdown").Add(float64(dropped))
		d.log.Warn().Int("worker_id", id).Int("delivered", delivered).Int("dropped", dropped).
			Msg("mail dropped on shutdown")
		return
	}
	if delivered > 0 {
		d.log.Info().Int("worker_id", id).Int("delivered", delivered).Msg("mail queue drained")
	}
}

func (d *Dispatcher) deliver(parent context.Context, id int, msg ports.MailMessage) {
	sendCtx, cancel := context.WithTimeout(parent, sendTimeout)
	defer cancel()
	if err := d.transport.Send(sendCtx, msg); err != nil {
		metrics.MailErrorsTotal.WithLabelValues("transport").Inc()
		d.log.Error().Err(err).
			Str("to", msg.To).
			Int("worker_id", id).
			Msg("mail delivery failed")
		return
	}
	metrics.MailSentTotal.Inc()
}
